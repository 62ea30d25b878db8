package nutrition

import (
	"fmt"
	"strings"

	"recipehub/internal/domain"
	"recipehub/internal/providers/openai"
)

// Inputs are the prompt inputs captured from the recipe.
type Inputs struct {
	Servings        int
	IngredientsText string
}

// IngredientLines renders the structured ingredient rows as the bullet list
// fed to the model: "- [group] amount unit name (note)".
func IngredientLines(rows []domain.RecipeIngredient) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		group := ""
		if row.GroupID != nil && row.GroupName != "" {
			group = fmt.Sprintf("[%s] ", row.GroupName)
		}
		note := ""
		if row.Note != "" {
			note = fmt.Sprintf(" (%s)", row.Note)
		}
		lines = append(lines, fmt.Sprintf("- %s%s %s %s%s", group, row.Amount, row.UnitShortName, row.IngredientName, note))
	}
	return strings.Join(lines, "\n")
}

// BuildInputs captures the prompt inputs for a recipe.
func BuildInputs(servings int, rows []domain.RecipeIngredient) Inputs {
	return Inputs{Servings: servings, IngredientsText: IngredientLines(rows)}
}

func systemPrompt() string {
	return "Tu esi mitybos specialistas. Iš recepto ingredientų sąrašo apskaičiuok apytikslę maistinę vertę " +
		"(per 1 porciją) ir nustatyk galimus EU14 alergenus. \n" +
		"Svarbu: jei trūksta informacijos (pvz. 'pagal skonį'), pateik protingą prielaidą ir įrašyk į notes. \n" +
		"Grąžink tik griežtą JSON (be Markdown, be teksto aplink)."
}

func userPrompt(inputs Inputs) string {
	return fmt.Sprintf(
		"Recepto porcijos: %d\n\n"+
			"Ingredientai:\n%s\n\n"+
			"Reikalavimai JSON formatui:\n"+
			"- currency: visada 'approx'\n"+
			"- per_serving: energy_kcal, protein_g, fat_g, saturated_fat_g?, carbs_g, sugars_g?, fiber_g?, salt_g?\n"+
			"- micros: cholesterol_mg?, potassium_mg?, calcium_mg?, iron_mg? (gali būti null)\n"+
			"- allergens: EU14 raktai: gluten, crustaceans, eggs, fish, peanuts, soy, milk, tree_nuts, celery, mustard, sesame, sulphites, lupin, molluscs\n"+
			"- notes: trumpi punktai apie prielaidas\n"+
			"- disclaimer: trumpas tekstas lietuviškai, kad vertės apytikslės\n",
		inputs.Servings, inputs.IngredientsText,
	)
}

// BuildChatRequest assembles the chat completion request for the nutrition
// inputs.
func BuildChatRequest(model string, inputs Inputs) openai.ChatRequest {
	return openai.ChatRequest{
		Model:       model,
		System:      systemPrompt(),
		User:        userPrompt(inputs),
		Temperature: 0.2,
	}
}
