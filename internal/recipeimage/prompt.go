// Package recipeimage builds prompts for recipe hero-image generation.
package recipeimage

import (
	"strings"
)

// MaxPromptIngredients caps how many ingredient names the prompt carries.
// Image generation works best with short, specific prompts.
const MaxPromptIngredients = 6

// BuildPrompt renders a compact deterministic prompt from the recipe title and
// its leading ingredient names.
func BuildPrompt(title string, ingredientNames []string) string {
	names := make([]string, 0, MaxPromptIngredients)
	for _, name := range ingredientNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
		if len(names) == MaxPromptIngredients {
			break
		}
	}

	parts := []string{
		"High-quality food photography of a finished dish",
		"Dish name: " + strings.TrimSpace(title),
	}
	if len(names) > 0 {
		parts = append(parts, "Key ingredients: "+strings.Join(names, ", "))
	}
	parts = append(parts,
		"Natural light, appetizing, clean background",
		"Top-down or 3/4 angle, shallow depth of field",
		"No text, no watermark, no logo",
	)

	return strings.Join(parts, ". ") + "."
}
