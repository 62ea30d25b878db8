package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"recipehub/internal/domain"
	"recipehub/internal/infra"
	"recipehub/internal/sqlinline"
)

// GenerationJobRepositoryPG persists recipe generation jobs on PostgreSQL.
type GenerationJobRepositoryPG struct {
	runner infra.SQLExecutor
}

func NewGenerationJobRepository(runner infra.SQLExecutor) *GenerationJobRepositoryPG {
	return &GenerationJobRepositoryPG{runner: runner}
}

// GenerationClaim is a claimed generation job ready for the external call.
type GenerationClaim struct {
	JobID  int64
	UserID string
	Inputs []byte
}

// ClaimNext claims the oldest queued generation job in one statement. The
// skip-locked select inside the CTE keeps concurrent workers from ever
// observing the same queued row.
func (r *GenerationJobRepositoryPG) ClaimNext(ctx context.Context) (*GenerationClaim, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QClaimNextGenerationJob)
	var claim GenerationClaim
	if err := row.Scan(&claim.JobID, &claim.UserID, &claim.Inputs); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return &claim, nil
}

// RecipeDraft is the validated generation output ready for persistence.
type RecipeDraft struct {
	Title           string
	Slug            string
	Description     string
	Note            string
	PreparationTime int
	CookingTime     int
	Servings        int
	Difficulty      domain.Difficulty
	Steps           []domain.RecipeStep
}

// FinalizeSuccess creates the generated recipe with its steps and marks the
// job succeeded, all in one transaction. The status update is guarded on
// running, so a job that was concurrently resolved leaves no recipe behind.
func (r *GenerationJobRepositoryPG) FinalizeSuccess(ctx context.Context, jobID int64, draft RecipeDraft, usage *domain.TokenUsage) (int64, error) {
	var usageJSON []byte
	if usage != nil {
		var err error
		usageJSON, err = json.Marshal(usage)
		if err != nil {
			return 0, fmt.Errorf("marshal token usage: %w", err)
		}
	}

	var recipeID int64
	err := r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QInsertRecipe,
			draft.Title, draft.Slug, draft.Description, draft.Note,
			draft.PreparationTime, draft.CookingTime, draft.Servings, draft.Difficulty)
		if err := row.Scan(&recipeID); err != nil {
			return err
		}
		for _, step := range draft.Steps {
			if _, err := tx.Exec(ctx, sqlinline.QInsertRecipeStep,
				recipeID, step.Order, step.Title, step.Description, step.Duration); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, sqlinline.QMarkGenerationJobSucceeded, jobID, recipeID, usageJSON)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAlreadyFinalized
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return recipeID, nil
}

// FinalizeFailure records a failed generation. The guarded update makes late
// failures for already-resolved jobs a no-op.
func (r *GenerationJobRepositoryPG) FinalizeFailure(ctx context.Context, jobID int64, reason string) error {
	tag, err := r.runner.Exec(ctx, sqlinline.QMarkGenerationJobFailed, jobID, truncateError(reason))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyFinalized
	}
	return nil
}

// CreateJob enqueues a new generation job for the user.
func (r *GenerationJobRepositoryPG) CreateJob(ctx context.Context, userID string, inputs []byte, selectedIngredientIDs []int64) (*domain.GenerationJob, error) {
	job := &domain.GenerationJob{
		UserID:                userID,
		Status:                domain.JobStatusQueued,
		Inputs:                inputs,
		SelectedIngredientIDs: selectedIngredientIDs,
	}
	row := r.runner.QueryRow(ctx, sqlinline.QInsertGenerationJob, userID, inputs, selectedIngredientIDs)
	if err := row.Scan(&job.ID, &job.CreatedAt); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJobForUser returns the job only when it belongs to the given user.
func (r *GenerationJobRepositoryPG) GetJobForUser(ctx context.Context, jobID int64, userID string) (*domain.GenerationJob, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QSelectGenerationJobForUser, jobID, userID)
	job := &domain.GenerationJob{UserID: userID}
	if err := row.Scan(&job.ID, &job.Status, &job.CreatedAt, &job.StartedAt, &job.FinishedAt,
		&job.ResultRecipeID, &job.ResultRecipeSlug, &job.Error); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// IngredientNames resolves ingredient ids to display names. Unknown ids are
// simply absent from the map.
func (r *GenerationJobRepositoryPG) IngredientNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.runner.Query(ctx, sqlinline.QSelectIngredientNamesByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
