package recipeimage

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()
	prompt := BuildPrompt("Cepelinai", []string{"bulvės", "kiauliena", ""})
	if !strings.Contains(prompt, "Dish name: Cepelinai") {
		t.Fatalf("prompt missing dish name: %q", prompt)
	}
	if !strings.Contains(prompt, "Key ingredients: bulvės, kiauliena") {
		t.Fatalf("prompt missing ingredients: %q", prompt)
	}
	if !strings.HasSuffix(prompt, ".") {
		t.Fatalf("prompt must end with a period: %q", prompt)
	}
}

func TestBuildPromptCapsIngredients(t *testing.T) {
	t.Parallel()
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	prompt := BuildPrompt("Testas", names)
	if strings.Contains(prompt, "g,") || strings.Contains(prompt, ", h") {
		t.Fatalf("prompt carries more than %d ingredients: %q", MaxPromptIngredients, prompt)
	}
	if !strings.Contains(prompt, "a, b, c, d, e, f") {
		t.Fatalf("prompt missing leading ingredients: %q", prompt)
	}
}

func TestBuildPromptWithoutIngredients(t *testing.T) {
	t.Parallel()
	prompt := BuildPrompt("Testas", nil)
	if strings.Contains(prompt, "Key ingredients") {
		t.Fatalf("prompt must omit empty ingredient section: %q", prompt)
	}
}
