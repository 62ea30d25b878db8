package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrParse tags malformed-JSON and schema-validation failures.
var ErrParse = errors.New("parse_error")

var validate = validator.New(validator.WithRequiredStructEnabled())

// EU14Allergens is the set of allergen keys the model may report.
var EU14Allergens = []string{
	"gluten", "crustaceans", "eggs", "fish", "peanuts", "soy", "milk",
	"tree_nuts", "celery", "mustard", "sesame", "sulphites", "lupin", "molluscs",
}

var allergenSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(EU14Allergens))
	for _, a := range EU14Allergens {
		set[a] = struct{}{}
	}
	return set
}()

// PerServing holds the per-portion macro estimates.
type PerServing struct {
	EnergyKcal   float64  `json:"energy_kcal" validate:"gte=0"`
	ProteinG     float64  `json:"protein_g" validate:"gte=0"`
	FatG         float64  `json:"fat_g" validate:"gte=0"`
	SaturatedFat *float64 `json:"saturated_fat_g" validate:"omitempty,gte=0"`
	CarbsG       float64  `json:"carbs_g" validate:"gte=0"`
	SugarsG      *float64 `json:"sugars_g" validate:"omitempty,gte=0"`
	FiberG       *float64 `json:"fiber_g" validate:"omitempty,gte=0"`
	SaltG        *float64 `json:"salt_g" validate:"omitempty,gte=0"`
}

// Micros holds optional micronutrient estimates.
type Micros struct {
	CholesterolMg *float64 `json:"cholesterol_mg" validate:"omitempty,gte=0"`
	PotassiumMg   *float64 `json:"potassium_mg" validate:"omitempty,gte=0"`
	CalciumMg     *float64 `json:"calcium_mg" validate:"omitempty,gte=0"`
	IronMg        *float64 `json:"iron_mg" validate:"omitempty,gte=0"`
}

// AllergenList accepts the allergens field as either a list of keys or a
// map-of-booleans ({"gluten": true}) and normalizes to a sorted key list.
type AllergenList []string

func (l *AllergenList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = cleanAllergens(list)
		return nil
	}
	var flags map[string]bool
	if err := json.Unmarshal(data, &flags); err == nil {
		keys := make([]string, 0, len(flags))
		for key, enabled := range flags {
			if enabled {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		*l = cleanAllergens(keys)
		return nil
	}
	return fmt.Errorf("allergens: expected list or map of booleans")
}

func cleanAllergens(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Result is the strict nutrition schema demanded from the model, plus the
// computed_at and servings fields stamped locally after a successful parse.
type Result struct {
	Currency   string       `json:"currency" validate:"required,eq=approx"`
	PerServing PerServing   `json:"per_serving"`
	Micros     *Micros      `json:"micros,omitempty"`
	Allergens  AllergenList `json:"allergens"`
	Notes      []string     `json:"notes"`
	Disclaimer string       `json:"disclaimer" validate:"required"`

	ComputedAt string `json:"computed_at,omitempty"`
	Servings   int    `json:"servings,omitempty"`
}

// Parse decodes and validates a model completion, stamps computed_at and
// servings, and returns the canonical JSON payload stored on the job and the
// recipe.
func Parse(content string, servings int, now time.Time) ([]byte, error) {
	result, err := parseResult(content)
	if err != nil {
		return nil, err
	}
	result.ComputedAt = now.UTC().Format(time.RFC3339)
	result.Servings = servings
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode nutrition result: %w", err)
	}
	return encoded, nil
}

func parseResult(content string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if result.Currency == "" {
		result.Currency = "approx"
	}
	for _, allergen := range result.Allergens {
		if _, ok := allergenSet[allergen]; !ok {
			return nil, fmt.Errorf("%w: unknown allergen %q", ErrParse, allergen)
		}
	}
	if result.Notes == nil {
		result.Notes = []string{}
	}
	if result.Allergens == nil {
		result.Allergens = AllergenList{}
	}
	if err := validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &result, nil
}
