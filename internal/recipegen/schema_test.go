package recipegen

import (
	"errors"
	"strings"
	"testing"

	"recipehub/internal/domain"
)

const validCompletion = `{
	"title": "  Bulvių   plokštainis ",
	"description": "Tradicinis patiekalas.",
	"ingredients": ["1 kg bulvių", "2 kiaušiniai"],
	"steps": [
		{"order": 1, "title": "Paruošimas", "description": "Sutarkuokite bulves.", "duration": 15},
		{"order": 2, "description": "Kepkite orkaitėje."}
	],
	"preparation_time": 20,
	"cooking_time": 60,
	"servings": 4,
	"difficulty": "easy",
	"note": "Tinka su grietine."
}`

func TestParseValidCompletion(t *testing.T) {
	t.Parallel()
	recipe, err := Parse(validCompletion)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if recipe.Title != "Bulvių plokštainis" {
		t.Fatalf("title = %q, want whitespace normalized", recipe.Title)
	}
	if len(recipe.Steps) != 2 || recipe.Steps[0].Duration == nil || *recipe.Steps[0].Duration != 15 {
		t.Fatalf("steps = %+v", recipe.Steps)
	}
	if recipe.Difficulty != domain.DifficultyEasy {
		t.Fatalf("difficulty = %q", recipe.Difficulty)
	}
}

func TestParseDifficultyFallsBackToMedium(t *testing.T) {
	t.Parallel()
	content := strings.Replace(validCompletion, `"easy"`, `"impossible"`, 1)
	recipe, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if recipe.Difficulty != domain.DifficultyMedium {
		t.Fatalf("difficulty = %q, want medium", recipe.Difficulty)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		content string
	}{
		{name: "not_json", content: "sorry, no recipe today"},
		{name: "missing_title", content: strings.Replace(validCompletion, `"title": "  Bulvių   plokštainis ",`, `"title": "",`, 1)},
		{name: "no_steps", content: strings.Replace(validCompletion, `{"order": 1, "title": "Paruošimas", "description": "Sutarkuokite bulves.", "duration": 15},
		{"order": 2, "description": "Kepkite orkaitėje."}`, ``, 1)},
		{name: "servings_too_high", content: strings.Replace(validCompletion, `"servings": 4`, `"servings": 40`, 1)},
		{name: "servings_zero", content: strings.Replace(validCompletion, `"servings": 4`, `"servings": 0`, 1)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(tc.content); !errors.Is(err, ErrParse) {
				t.Fatalf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestIngredientLinesAcceptsMarkdownBlock(t *testing.T) {
	t.Parallel()
	content := strings.Replace(validCompletion,
		`["1 kg bulvių", "2 kiaušiniai"]`,
		`"- 1 kg bulvių\n- 2 kiaušiniai\n\n"`, 1)
	recipe, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(recipe.Ingredients) != 2 || recipe.Ingredients[0] != "1 kg bulvių" {
		t.Fatalf("ingredients = %+v", recipe.Ingredients)
	}
}

func TestComposeDescription(t *testing.T) {
	t.Parallel()
	recipe, err := Parse(validCompletion)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	description := ComposeDescription(recipe)
	if !strings.Contains(description, "## Ingredientai\n- 1 kg bulvių\n- 2 kiaušiniai") {
		t.Fatalf("description missing ingredient section:\n%s", description)
	}
	if !strings.Contains(description, "## Pastaba\nTinka su grietine.") {
		t.Fatalf("description missing note section:\n%s", description)
	}
	if !strings.HasPrefix(description, "Tradicinis patiekalas.") {
		t.Fatalf("description must start with the generated body:\n%s", description)
	}
}

func TestComposeDescriptionWithoutNote(t *testing.T) {
	t.Parallel()
	recipe := &GeneratedRecipe{Description: "Aprašymas.", Ingredients: IngredientLines{"druska"}}
	description := ComposeDescription(recipe)
	if strings.Contains(description, "## Pastaba") {
		t.Fatalf("unexpected note section:\n%s", description)
	}
}
