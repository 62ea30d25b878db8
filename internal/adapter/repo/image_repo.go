package repo

import (
	"context"

	"recipehub/internal/domain"
	"recipehub/internal/infra"
	"recipehub/internal/sqlinline"
)

// ImageJobRepositoryPG persists hero-image jobs on PostgreSQL.
type ImageJobRepositoryPG struct {
	runner infra.SQLExecutor
}

func NewImageJobRepository(runner infra.SQLExecutor) *ImageJobRepositoryPG {
	return &ImageJobRepositoryPG{runner: runner}
}

// ImageClaim is a claimed image job. When Resolved is true the recipe already
// had an image and the job was finalized as succeeded inside the claim
// transaction, so no external call is needed.
type ImageClaim struct {
	JobID    int64
	RecipeID int64
	Prompt   string
	Title    string
	Slug     string
	Resolved bool
}

// ClaimNext claims the oldest queued image job. Jobs whose recipe already
// carries an image are short-circuited to succeeded within the claim
// transaction. The prompt recorded at enqueue time wins over a rebuilt one;
// jobs enqueued without a prompt get one built from the recipe title and its
// ingredient names, loaded inside the claim transaction.
func (r *ImageJobRepositoryPG) ClaimNext(ctx context.Context, buildPrompt func(title string, ingredientNames []string) string) (*ImageClaim, error) {
	var claim *ImageClaim
	err := r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QSelectNextQueuedImageJob)
		var (
			jobID     int64
			recipeID  int64
			prompt    string
			title     string
			slug      string
			imagePath string
		)
		if err := row.Scan(&jobID, &recipeID, &prompt, &title, &slug, &imagePath); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNoJobAvailable
			}
			return err
		}

		if imagePath != "" {
			if _, err := tx.Exec(ctx, sqlinline.QMarkImageJobSucceeded, jobID); err != nil {
				return err
			}
			claim = &ImageClaim{JobID: jobID, RecipeID: recipeID, Slug: slug, Resolved: true}
			return nil
		}

		if prompt == "" {
			names, err := ingredientNamesForRecipe(ctx, tx, recipeID)
			if err != nil {
				return err
			}
			prompt = buildPrompt(title, names)
		}
		if _, err := tx.Exec(ctx, sqlinline.QMarkImageJobRunning, jobID, prompt); err != nil {
			return err
		}
		claim = &ImageClaim{JobID: jobID, RecipeID: recipeID, Prompt: prompt, Title: title, Slug: slug}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// FinalizeSuccess attaches the stored image to the recipe and marks the job
// succeeded. If another process already gave the recipe an image the job is
// still marked succeeded without overwriting it.
func (r *ImageJobRepositoryPG) FinalizeSuccess(ctx context.Context, jobID int64, imagePath string) error {
	return r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QSelectImageJobForUpdate, jobID)
		var (
			status       domain.JobStatus
			recipeID     int64
			slug         string
			existingPath string
		)
		if err := row.Scan(&status, &recipeID, &slug, &existingPath); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if status != domain.JobStatusRunning {
			return domain.ErrAlreadyFinalized
		}
		if existingPath == "" {
			if _, err := tx.Exec(ctx, sqlinline.QUpdateRecipeImagePath, recipeID, imagePath); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, sqlinline.QMarkImageJobSucceeded, jobID)
		return err
	})
}

// FinalizeFailure records a failed image generation.
func (r *ImageJobRepositoryPG) FinalizeFailure(ctx context.Context, jobID int64, reason string) error {
	return r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QSelectImageJobForUpdate, jobID)
		var (
			status       domain.JobStatus
			recipeID     int64
			slug         string
			existingPath string
		)
		if err := row.Scan(&status, &recipeID, &slug, &existingPath); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if status.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		_, err := tx.Exec(ctx, sqlinline.QMarkImageJobFailed, jobID, truncateError(reason))
		return err
	})
}

// ImageCandidate is one recipe eligible for a new image job.
type ImageCandidate struct {
	RecipeID int64
	Title    string
}

// ListCandidates selects recipes without a hero image and without an active
// image job. Only generated recipes qualify unless includeNonGenerated is set.
func (r *ImageJobRepositoryPG) ListCandidates(ctx context.Context, limit int, includeNonGenerated bool) ([]ImageCandidate, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListImageCandidates, includeNonGenerated, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []ImageCandidate
	for rows.Next() {
		var c ImageCandidate
		if err := rows.Scan(&c.RecipeID, &c.Title); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// IngredientNamesForRecipe lists ingredient names in recipe order, used to
// enrich the image prompt at enqueue time.
func (r *ImageJobRepositoryPG) IngredientNamesForRecipe(ctx context.Context, recipeID int64) ([]string, error) {
	return ingredientNamesForRecipe(ctx, r.runner, recipeID)
}

func ingredientNamesForRecipe(ctx context.Context, q infra.SQLExecutor, recipeID int64) ([]string, error) {
	rows, err := q.Query(ctx, sqlinline.QSelectIngredientNamesForRecipe, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateJob enqueues a queued image job with a prebuilt prompt.
func (r *ImageJobRepositoryPG) CreateJob(ctx context.Context, recipeID int64, prompt string) (int64, error) {
	var jobID int64
	row := r.runner.QueryRow(ctx, sqlinline.QInsertImageJob, recipeID, prompt)
	if err := row.Scan(&jobID); err != nil {
		return 0, err
	}
	return jobID, nil
}
