package repo

import (
	"context"

	"recipehub/internal/domain"
	"recipehub/internal/infra"
)

// maxErrorLen bounds the error text stored on job rows.
const maxErrorLen = 4000

func truncateError(reason string) string {
	if len(reason) > maxErrorLen {
		return reason[:maxErrorLen]
	}
	return reason
}

func queryIngredientRows(ctx context.Context, q infra.SQLExecutor, query string, recipeID int64) ([]domain.RecipeIngredient, error) {
	rows, err := q.Query(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecipeIngredient
	for rows.Next() {
		var ri domain.RecipeIngredient
		if err := rows.Scan(&ri.IngredientID, &ri.GroupID, &ri.UnitID, &ri.Amount, &ri.Note,
			&ri.IngredientName, &ri.UnitShortName, &ri.GroupName); err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}
