package repo

import (
	"context"
	"time"

	"recipehub/internal/domain"
	"recipehub/internal/infra"
	"recipehub/internal/sqlinline"
)

// RecipeRepositoryPG serves the recipe reads and writes that are not owned by
// a single job kind: SEO meta fields, taxonomy context and search documents.
type RecipeRepositoryPG struct {
	runner infra.SQLExecutor
}

func NewRecipeRepository(runner infra.SQLExecutor) *RecipeRepositoryPG {
	return &RecipeRepositoryPG{runner: runner}
}

// ListMetaCandidates returns recipes missing a meta title or description.
// Drafts are excluded unless includeDrafts is set.
func (r *RecipeRepositoryPG) ListMetaCandidates(ctx context.Context, limit int, includeDrafts bool) ([]domain.Recipe, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListMetaCandidates, includeDrafts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		var rec domain.Recipe
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Difficulty,
			&rec.PreparationTime, &rec.CookingTime, &rec.Servings,
			&rec.MetaTitle, &rec.MetaDescription); err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// Taxonomies loads the taxonomy names attached to a recipe.
func (r *RecipeRepositoryPG) Taxonomies(ctx context.Context, recipeID int64) (domain.RecipeTaxonomies, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QSelectRecipeTaxonomies, recipeID)
	var tax domain.RecipeTaxonomies
	if err := row.Scan(&tax.Cuisines, &tax.MealTypes, &tax.Categories, &tax.Tags, &tax.CookingMethods); err != nil {
		if infra.IsNoRows(err) {
			return domain.RecipeTaxonomies{}, domain.ErrNotFound
		}
		return domain.RecipeTaxonomies{}, err
	}
	return tax, nil
}

// IngredientRowsForPrompt loads ingredient rows in display order for prompt
// building.
func (r *RecipeRepositoryPG) IngredientRowsForPrompt(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error) {
	return queryIngredientRows(ctx, r.runner, sqlinline.QSelectRecipeIngredientRowsForPrompt, recipeID)
}

// UpdateMeta writes only the requested meta fields; the others keep their
// current values.
func (r *RecipeRepositoryPG) UpdateMeta(ctx context.Context, recipeID int64, metaTitle string, setTitle bool, metaDescription string, setDescription bool) error {
	_, err := r.runner.Exec(ctx, sqlinline.QUpdateRecipeMeta, recipeID, setTitle, metaTitle, setDescription, metaDescription)
	return err
}

// RecipeSearchDoc carries the denormalized fields indexed for search.
type RecipeSearchDoc struct {
	RecipeID        int64
	Title           string
	Slug            string
	Description     string
	MetaTitle       string
	MetaDescription string
	Difficulty      string
	PublishedAt     *time.Time
	Ingredients     []string
}

// SearchDocument builds the search index document for one recipe.
func (r *RecipeRepositoryPG) SearchDocument(ctx context.Context, recipeID int64) (*RecipeSearchDoc, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QSelectRecipeSearchDoc, recipeID)
	var doc RecipeSearchDoc
	if err := row.Scan(&doc.RecipeID, &doc.Title, &doc.Slug, &doc.Description,
		&doc.MetaTitle, &doc.MetaDescription, &doc.Difficulty, &doc.PublishedAt, &doc.Ingredients); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}
