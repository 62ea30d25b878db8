package nutrition

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"recipehub/internal/domain"
)

// ComputeInputHash fingerprints the inputs the nutrition estimate depends on:
// servings plus the ordered ingredient rows. Rows must already be sorted by
// (ingredient_id, group_id, unit_id, amount) as the repository queries do, so
// the same recipe state always hashes to the same value.
func ComputeInputHash(servings int, rows []domain.RecipeIngredient) string {
	type hashRow struct {
		IngredientID int64  `json:"i"`
		GroupID      *int64 `json:"g"`
		UnitID       int64  `json:"u"`
		Amount       string `json:"a"`
		Note         string `json:"n"`
	}
	payload := struct {
		Servings int       `json:"servings"`
		Rows     []hashRow `json:"rows"`
	}{Servings: servings, Rows: make([]hashRow, 0, len(rows))}
	for _, row := range rows {
		payload.Rows = append(payload.Rows, hashRow{
			IngredientID: row.IngredientID,
			GroupID:      row.GroupID,
			UnitID:       row.UnitID,
			Amount:       row.Amount,
			Note:         row.Note,
		})
	}
	encoded, _ := json.Marshal(payload)
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
