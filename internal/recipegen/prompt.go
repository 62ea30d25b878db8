package recipegen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"recipehub/internal/providers/openai"
)

// Inputs are the normalized generation inputs after ingredient ids are
// resolved to names.
type Inputs struct {
	DishType          string
	PrepSpeed         string
	HaveIngredients   []string
	CanBuyIngredients []string
	Exclude           []string
}

// Payload is the request body persisted on the job row at enqueue time.
type Payload struct {
	DishType              string   `json:"dish_type"`
	HaveIngredientIDs     []int64  `json:"have_ingredient_ids"`
	HaveIngredientsText   []string `json:"have_ingredients_text"`
	CanBuyIngredientIDs   []int64  `json:"can_buy_ingredient_ids"`
	CanBuyIngredientsText []string `json:"can_buy_ingredients_text"`
	PrepSpeed             string   `json:"prep_speed"`
	Exclude               []string `json:"exclude"`
}

// DecodePayload parses the stored job inputs.
func DecodePayload(raw []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode generation payload: %w", err)
	}
	return &payload, nil
}

// SelectedIngredientIDs returns the sorted union of the have and can-buy id
// lists, used for audit and analytics on the job row.
func (p *Payload) SelectedIngredientIDs() []int64 {
	seen := make(map[int64]struct{}, len(p.HaveIngredientIDs)+len(p.CanBuyIngredientIDs))
	for _, id := range p.HaveIngredientIDs {
		seen[id] = struct{}{}
	}
	for _, id := range p.CanBuyIngredientIDs {
		seen[id] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BuildInputs resolves ingredient ids through idToName and merges them with
// the free-text entries.
func BuildInputs(payload *Payload, idToName map[int64]string) Inputs {
	have := resolveNames(payload.HaveIngredientIDs, idToName)
	for _, text := range payload.HaveIngredientsText {
		if t := normalizeText(text); t != "" {
			have = append(have, t)
		}
	}
	canBuy := resolveNames(payload.CanBuyIngredientIDs, idToName)
	for _, text := range payload.CanBuyIngredientsText {
		if t := normalizeText(text); t != "" {
			canBuy = append(canBuy, t)
		}
	}
	exclude := make([]string, 0, len(payload.Exclude))
	for _, text := range payload.Exclude {
		if t := normalizeText(text); t != "" {
			exclude = append(exclude, t)
		}
	}
	return Inputs{
		DishType:          payload.DishType,
		PrepSpeed:         payload.PrepSpeed,
		HaveIngredients:   have,
		CanBuyIngredients: canBuy,
		Exclude:           exclude,
	}
}

func resolveNames(ids []int64, idToName map[int64]string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := idToName[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func systemPrompt() string {
	return "Tu esi receptų kūrėjas (LT). Sugeneruok vieną aiškų, įgyvendinamą receptą pagal įvestį. " +
		"Svarbu: grąžink tik griežtą JSON (be Markdown aplink JSON, be jokio papildomo teksto).\n" +
		"Taisyklės:\n" +
		"- 'exclude' yra GRIEŽTI draudimai: negali pasirodyti nei ingredientuose, nei žingsniuose (nei sinonimais).\n" +
		"- Ingredientų sąrašas turi būti realistiškas; galima siūlyti papildomų ingredientų, jei vartotojas gali nupirkti.\n" +
		"- 'ingredients' grąžink kaip sąrašą trumpų eilučių (be skyriaus antraštės), skirtų atvaizduoti bullet list.\n" +
		"- 'description' ir 'note' yra Markdown.\n" +
		"- 'difficulty' privalo būti vienas iš: easy, medium, hard.\n"
}

func userPrompt(inputs Inputs) string {
	have := bulletList(inputs.HaveIngredients, "- (nieko konkretaus)")
	canBuy := bulletList(inputs.CanBuyIngredients, "- (laisvai)")
	exclude := "(nėra)"
	if len(inputs.Exclude) > 0 {
		exclude = strings.Join(inputs.Exclude, ", ")
	}

	return fmt.Sprintf(
		"Patiekalo tipas: %s\n"+
			"Paruošimo tempas: %s\n"+
			"Turiu namuose (prioritetas naudoti):\n%s\n\n"+
			"Galiu nupirkti (galima naudoti laisvai):\n%s\n\n"+
			"GRIEŽTAI draudžiama (exclude): %s\n\n"+
			"Grąžinamas JSON formatas:\n"+
			"{\n"+
			"  \"title\": \"...\",\n"+
			"  \"description\": \"... (Markdown)\",\n"+
			"  \"ingredients\": [\"...\", \"...\"],\n"+
			"  \"steps\": [{\"order\": 1, \"title\": \"...\", \"description\": \"... (Markdown)\", \"duration\": 10}],\n"+
			"  \"preparation_time\": 10,\n"+
			"  \"cooking_time\": 20,\n"+
			"  \"servings\": 2,\n"+
			"  \"difficulty\": \"easy\",\n"+
			"  \"note\": \"... (Markdown, optional)\"\n"+
			"}\n",
		inputs.DishType, inputs.PrepSpeed, have, canBuy, exclude,
	)
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// BuildChatRequest assembles the chat completion request for the generation
// inputs.
func BuildChatRequest(model string, inputs Inputs) openai.ChatRequest {
	return openai.ChatRequest{
		Model:       model,
		System:      systemPrompt(),
		User:        userPrompt(inputs),
		Temperature: 0.4,
	}
}
