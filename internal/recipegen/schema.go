package recipegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"recipehub/internal/domain"
)

// ErrParse tags malformed-JSON and schema-validation failures so the job error
// field carries a recognizable "parse_error" prefix.
var ErrParse = errors.New("parse_error")

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeneratedStep is one ordered cooking step in the model output.
type GeneratedStep struct {
	Order       int    `json:"order" validate:"gte=1"`
	Title       string `json:"title"`
	Description string `json:"description" validate:"required"`
	Duration    *int   `json:"duration" validate:"omitempty,gte=0"`
}

// GeneratedRecipe is the strict result schema demanded from the model.
type GeneratedRecipe struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Ingredients IngredientLines `json:"ingredients"`
	Steps       []GeneratedStep `json:"steps" validate:"min=1,dive"`

	PreparationTime int               `json:"preparation_time" validate:"gte=0"`
	CookingTime     int               `json:"cooking_time" validate:"gte=0"`
	Servings        int               `json:"servings" validate:"gte=1,lte=20"`
	Difficulty      domain.Difficulty `json:"difficulty"`

	Note string `json:"note"`
}

// IngredientLines accepts either a JSON list of short lines or a single
// markdown block that gets split into lines.
type IngredientLines []string

func (l *IngredientLines) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = cleanLines(list)
		return nil
	}
	var block string
	if err := json.Unmarshal(data, &block); err == nil {
		*l = cleanLines(strings.Split(block, "\n"))
		return nil
	}
	return fmt.Errorf("ingredients: expected list or string")
}

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "- "))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeText(text string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// Parse decodes and validates a model completion. An out-of-range difficulty
// falls back to medium instead of failing the job; every other schema
// violation is a parse error.
func Parse(content string) (*GeneratedRecipe, error) {
	var recipe GeneratedRecipe
	if err := json.Unmarshal([]byte(content), &recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	recipe.Title = normalizeText(recipe.Title)
	if !recipe.Difficulty.Valid() {
		recipe.Difficulty = domain.DifficultyMedium
	}
	if err := validate.Struct(&recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &recipe, nil
}

// ComposeDescription renders the final recipe description: the generated
// markdown body followed by the ingredient bullet list and the optional note.
func ComposeDescription(recipe *GeneratedRecipe) string {
	description := strings.TrimSpace(recipe.Description)
	if len(recipe.Ingredients) > 0 {
		var sb strings.Builder
		for _, line := range recipe.Ingredients {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		description = fmt.Sprintf("%s\n\n## Ingredientai\n%s", description, sb.String())
	}
	if note := strings.TrimSpace(recipe.Note); note != "" {
		description = fmt.Sprintf("%s\n\n## Pastaba\n%s\n", description, note)
	}
	return description
}
