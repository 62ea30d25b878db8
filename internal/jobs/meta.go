package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/search"
	"recipehub/internal/seometa"
)

// MetaStore is the persistence surface of the SEO meta filler.
type MetaStore interface {
	ListMetaCandidates(ctx context.Context, limit int, includeDrafts bool) ([]domain.Recipe, error)
	Taxonomies(ctx context.Context, recipeID int64) (domain.RecipeTaxonomies, error)
	IngredientRowsForPrompt(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error)
	UpdateMeta(ctx context.Context, recipeID int64, metaTitle string, setTitle bool, metaDescription string, setDescription bool) error
	SearchDocument(ctx context.Context, recipeID int64) (*repo.RecipeSearchDoc, error)
}

// MetaFiller generates missing meta_title / meta_description fields. Unlike
// the job pipelines it works directly on recipes: there is no job row, a
// failed recipe is logged and the run moves on.
type MetaFiller struct {
	Store  MetaStore
	Chat   ChatCompleter
	Search *search.Client
	Model  string
	Logger zerolog.Logger
}

// MetaSummary reports one fill run.
type MetaSummary struct {
	Candidates int
	Updated    int
	Failed     int
	DryRun     bool
}

func (f *MetaFiller) Fill(ctx context.Context, limit int, includeDrafts, dryRun bool) (MetaSummary, error) {
	candidates, err := f.Store.ListMetaCandidates(ctx, limit, includeDrafts)
	if err != nil {
		return MetaSummary{}, err
	}
	summary := MetaSummary{Candidates: len(candidates), DryRun: dryRun}
	for i := range candidates {
		recipe := &candidates[i]
		logger := f.Logger.With().Int64("recipe_id", recipe.ID).Logger()
		if dryRun {
			summary.Updated++
			continue
		}
		if err := f.fillOne(ctx, logger, recipe); err != nil {
			logger.Warn().Err(err).Msg("meta fill failed")
			summary.Failed++
			continue
		}
		summary.Updated++
	}
	return summary, nil
}

func (f *MetaFiller) fillOne(ctx context.Context, logger zerolog.Logger, recipe *domain.Recipe) error {
	taxonomies, err := f.Store.Taxonomies(ctx, recipe.ID)
	if err != nil {
		return err
	}
	rows, err := f.Store.IngredientRowsForPrompt(ctx, recipe.ID)
	if err != nil {
		return err
	}
	inputs := seometa.BuildInputs(recipe, taxonomies, rows)

	content, _, err := f.Chat.ChatJSON(ctx, seometa.BuildChatRequest(f.Model, inputs))
	if err != nil {
		return err
	}
	result, err := seometa.Parse(content)
	if err != nil {
		return err
	}

	// Only fill what is missing; hand-written meta fields are never replaced.
	setTitle := recipe.MetaTitle == ""
	setDescription := recipe.MetaDescription == ""
	if err := f.Store.UpdateMeta(ctx, recipe.ID, result.MetaTitle, setTitle, result.MetaDescription, setDescription); err != nil {
		return err
	}
	logger.Info().Bool("title_set", setTitle).Bool("description_set", setDescription).Msg("meta fields filled")

	if f.Search != nil {
		if doc, err := f.Store.SearchDocument(ctx, recipe.ID); err == nil {
			f.Search.UpsertRecipe(ctx, doc)
		} else {
			logger.Warn().Err(err).Msg("load search document failed")
		}
	}
	return nil
}
