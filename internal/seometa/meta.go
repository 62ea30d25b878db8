// Package seometa generates the meta_title / meta_description pair for a
// recipe from its metadata, taxonomy and ingredient context.
package seometa

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"recipehub/internal/domain"
	"recipehub/internal/nutrition"
	"recipehub/internal/providers/openai"
)

const (
	// MaxTitleLen and MaxDescriptionLen are enforced locally even when the
	// model ignores the length instruction.
	MaxTitleLen       = 80
	MaxDescriptionLen = 160
)

// ErrParse tags malformed-JSON and schema-validation failures.
var ErrParse = errors.New("parse_error")

var validate = validator.New(validator.WithRequiredStructEnabled())

var upperFirst = cases.Upper(language.Lithuanian)

// Inputs carries the recipe context fed to the prompt.
type Inputs struct {
	Title           string
	Description     string
	Difficulty      string
	PreparationTime int
	CookingTime     int
	Servings        int
	Taxonomies      domain.RecipeTaxonomies
	IngredientsText string
}

// BuildInputs normalizes recipe fields into prompt inputs.
func BuildInputs(recipe *domain.Recipe, taxonomies domain.RecipeTaxonomies, rows []domain.RecipeIngredient) Inputs {
	return Inputs{
		Title:           normalizeText(recipe.Title),
		Description:     StripMarkdown(recipe.Description),
		Difficulty:      string(recipe.Difficulty),
		PreparationTime: recipe.PreparationTime,
		CookingTime:     recipe.CookingTime,
		Servings:        recipe.Servings,
		Taxonomies:      taxonomies,
		IngredientsText: nutrition.IngredientLines(rows),
	}
}

// Result is the two-field JSON schema demanded from the model.
type Result struct {
	MetaTitle       string `json:"meta_title" validate:"required"`
	MetaDescription string `json:"meta_description" validate:"required"`
}

func systemPrompt() string {
	return "Tu esi SEO specialistas receptų svetainei (LT). " +
		"Iš pateikto recepto konteksto sugeneruok SEO meta laukus. " +
		"Grąžink tik griežtą JSON (be Markdown, be jokio papildomo teksto).\n" +
		"Taisyklės:\n" +
		"- meta_title: lietuviškai, aiškus, iki 80 simbolių\n" +
		"- meta_description: lietuviškai, iki 160 simbolių, be Markdown simbolių (#, *, `, nuorodų)\n" +
		"- Nenaudok kabučių pradžioje/pabaigoje, nenaudok emoji\n" +
		"- Jei trūksta duomenų, daryk protingas prielaidas pagal ingredientus\n"
}

func userPrompt(inputs Inputs) string {
	return fmt.Sprintf(
		"Pavadinimas: %s\n"+
			"Aprašymas: %s\n"+
			"Sudėtingumas: %s\n"+
			"Laikas: pasiruošimas %d min, gaminimas %d min\n"+
			"Porcijos: %d\n"+
			"Virtuvės: %s\n"+
			"Patiekalo tipai: %s\n"+
			"Kategorijos: %s\n"+
			"Žymos: %s\n"+
			"Gaminimo būdai: %s\n\n"+
			"Ingredientai:\n%s\n\n"+
			"Grąžinamas JSON formatas:\n"+
			"{\n"+
			"  \"meta_title\": \"...\",\n"+
			"  \"meta_description\": \"...\"\n"+
			"}\n",
		inputs.Title,
		inputs.Description,
		inputs.Difficulty,
		inputs.PreparationTime,
		inputs.CookingTime,
		inputs.Servings,
		joinFirst(inputs.Taxonomies.Cuisines, 5),
		joinFirst(inputs.Taxonomies.MealTypes, 5),
		joinFirst(inputs.Taxonomies.Categories, 8),
		joinFirst(inputs.Taxonomies.Tags, 12),
		joinFirst(inputs.Taxonomies.CookingMethods, 8),
		inputs.IngredientsText,
	)
}

func joinFirst(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	return strings.Join(items, ", ")
}

// BuildChatRequest assembles the chat completion request for the meta inputs.
func BuildChatRequest(model string, inputs Inputs) openai.ChatRequest {
	return openai.ChatRequest{
		Model:       model,
		System:      systemPrompt(),
		User:        userPrompt(inputs),
		Temperature: 0.3,
	}
}

// Parse decodes and validates a model completion, then applies the local
// guardrails: markdown stripped, wrapping quotes removed, clipped to length,
// first letter uppercased.
func Parse(content string) (Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := validate.Struct(&result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	result.MetaTitle = finalize(StripMarkdown(result.MetaTitle), MaxTitleLen)
	result.MetaDescription = finalize(StripMarkdown(result.MetaDescription), MaxDescriptionLen)
	if result.MetaTitle == "" || result.MetaDescription == "" {
		return Result{}, fmt.Errorf("%w: empty meta fields after cleanup", ErrParse)
	}
	return result, nil
}

func finalize(text string, maxLen int) string {
	text = clip(text, maxLen)
	text = strings.Trim(text, `"'`)
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	runes := []rune(text)
	return upperFirst.String(string(runes[:1])) + string(runes[1:])
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	codeBlockRe  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	headingRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
)

func normalizeText(text string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// StripMarkdown removes headings, bullets, inline code, links and emphasis.
// Minimal and safe rather than a full markdown parser.
func StripMarkdown(text string) string {
	text = codeBlockRe.ReplaceAllString(text, " ")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	return normalizeText(text)
}

func clip(text string, maxLen int) string {
	text = normalizeText(text)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return strings.TrimRight(string(runes[:maxLen]), " ")
}
