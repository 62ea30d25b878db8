package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/nutrition"
	"recipehub/internal/recipeimage"
)

// EnqueueSummary reports one enqueue run.
type EnqueueSummary struct {
	Candidates int
	Created    int
	Skipped    int
	DryRun     bool
}

// NutritionEnqueueStore is the persistence surface of the nutrition enqueuer.
type NutritionEnqueueStore interface {
	ListCandidates(ctx context.Context, limit int, includeDrafts, force bool) ([]repo.NutritionCandidate, error)
	IngredientRowsForHash(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error)
	CreateJob(ctx context.Context, recipeID int64, inputHash string) (int64, error)
}

// NutritionEnqueuer creates queued nutrition jobs for recipes with missing or
// dirty nutrition. The input hash is captured here, at enqueue time; the claim
// transaction later recomputes it to detect stale jobs.
type NutritionEnqueuer struct {
	Store  NutritionEnqueueStore
	Logger zerolog.Logger
}

func (e *NutritionEnqueuer) Enqueue(ctx context.Context, limit int, includeDrafts, force, dryRun bool) (EnqueueSummary, error) {
	candidates, err := e.Store.ListCandidates(ctx, limit, includeDrafts, force)
	if err != nil {
		return EnqueueSummary{}, err
	}
	summary := EnqueueSummary{Candidates: len(candidates), DryRun: dryRun}
	for _, candidate := range candidates {
		rows, err := e.Store.IngredientRowsForHash(ctx, candidate.RecipeID)
		if err != nil {
			return summary, err
		}
		if len(rows) == 0 {
			e.Logger.Warn().Int64("recipe_id", candidate.RecipeID).Msg("recipe has no ingredients, skipping")
			summary.Skipped++
			continue
		}
		if dryRun {
			summary.Created++
			continue
		}
		hash := nutrition.ComputeInputHash(candidate.Servings, rows)
		jobID, err := e.Store.CreateJob(ctx, candidate.RecipeID, hash)
		if err != nil {
			return summary, err
		}
		e.Logger.Info().Int64("recipe_id", candidate.RecipeID).Int64("job_id", jobID).Msg("nutrition job enqueued")
		summary.Created++
	}
	return summary, nil
}

// ImageEnqueueStore is the persistence surface of the image enqueuer.
type ImageEnqueueStore interface {
	ListCandidates(ctx context.Context, limit int, includeNonGenerated bool) ([]repo.ImageCandidate, error)
	IngredientNamesForRecipe(ctx context.Context, recipeID int64) ([]string, error)
	CreateJob(ctx context.Context, recipeID int64, prompt string) (int64, error)
}

// ImageEnqueuer creates queued image jobs for recipes without a hero image.
// The prompt is built here so the worker does not need the ingredient rows.
type ImageEnqueuer struct {
	Store  ImageEnqueueStore
	Logger zerolog.Logger
}

func (e *ImageEnqueuer) Enqueue(ctx context.Context, limit int, includeNonGenerated, dryRun bool) (EnqueueSummary, error) {
	candidates, err := e.Store.ListCandidates(ctx, limit, includeNonGenerated)
	if err != nil {
		return EnqueueSummary{}, err
	}
	summary := EnqueueSummary{Candidates: len(candidates), DryRun: dryRun}
	for _, candidate := range candidates {
		if dryRun {
			summary.Created++
			continue
		}
		names, err := e.Store.IngredientNamesForRecipe(ctx, candidate.RecipeID)
		if err != nil {
			return summary, err
		}
		prompt := recipeimage.BuildPrompt(candidate.Title, names)
		jobID, err := e.Store.CreateJob(ctx, candidate.RecipeID, prompt)
		if err != nil {
			return summary, err
		}
		e.Logger.Info().Int64("recipe_id", candidate.RecipeID).Int64("job_id", jobID).Msg("image job enqueued")
		summary.Created++
	}
	return summary, nil
}
