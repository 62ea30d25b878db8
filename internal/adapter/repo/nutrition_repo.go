package repo

import (
	"context"
	"fmt"
	"time"

	"recipehub/internal/domain"
	"recipehub/internal/infra"
	"recipehub/internal/nutrition"
	"recipehub/internal/sqlinline"
)

// NutritionJobRepositoryPG persists nutrition jobs and implements the claim
// and result-commit protocols on PostgreSQL row locks.
type NutritionJobRepositoryPG struct {
	runner infra.SQLExecutor
}

func NewNutritionJobRepository(runner infra.SQLExecutor) *NutritionJobRepositoryPG {
	return &NutritionJobRepositoryPG{runner: runner}
}

// NutritionClaim is the outcome of one claim transaction. When Stale is true
// the job was already failed inside the claim transaction and the recipe
// marked dirty; no external call may be made for it.
type NutritionClaim struct {
	JobID     int64
	RecipeID  int64
	InputHash string
	Servings  int
	Stale     bool
	Inputs    nutrition.Inputs
}

// ClaimNext atomically claims the oldest queued nutrition job. The staleness
// check runs inside the claim transaction: the recipe's input hash is
// recomputed and compared against the hash captured at enqueue time, so no
// lock is held during the slow external call and no call is made for stale
// work. Returns domain.ErrNoJobAvailable when nothing is claimable.
func (r *NutritionJobRepositoryPG) ClaimNext(ctx context.Context) (*NutritionClaim, error) {
	var claim *NutritionClaim
	err := r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QSelectNextQueuedNutritionJob)
		var (
			jobID     int64
			recipeID  int64
			inputHash string
			servings  int
		)
		if err := row.Scan(&jobID, &recipeID, &inputHash, &servings); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNoJobAvailable
			}
			return err
		}

		hashRows, err := queryIngredientRows(ctx, tx, sqlinline.QSelectRecipeIngredientRowsForHash, recipeID)
		if err != nil {
			return err
		}
		currentHash := nutrition.ComputeInputHash(servings, hashRows)
		if currentHash != inputHash {
			if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobFailed, jobID, "stale_job: recipe pasikeitė po enqueue"); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, sqlinline.QMarkRecipeNutritionDirty, recipeID); err != nil {
				return err
			}
			claim = &NutritionClaim{JobID: jobID, RecipeID: recipeID, InputHash: inputHash, Servings: servings, Stale: true}
			return nil
		}

		if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobRunning, jobID); err != nil {
			return err
		}
		promptRows, err := queryIngredientRows(ctx, tx, sqlinline.QSelectRecipeIngredientRowsForPrompt, recipeID)
		if err != nil {
			return err
		}
		claim = &NutritionClaim{
			JobID:     jobID,
			RecipeID:  recipeID,
			InputHash: inputHash,
			Servings:  servings,
			Inputs:    nutrition.BuildInputs(servings, promptRows),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// FinalizeSuccess commits a successful result to the job row and the owning
// recipe in one transaction. The job row is re-locked and its status
// re-checked so a job another process already resolved is skipped with
// domain.ErrAlreadyFinalized.
func (r *NutritionJobRepositoryPG) FinalizeSuccess(ctx context.Context, jobID int64, result []byte) error {
	return r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		locked, err := lockNutritionJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if locked.status != domain.JobStatusRunning {
			return domain.ErrAlreadyFinalized
		}
		if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobSucceeded, jobID, result); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, sqlinline.QUpdateRecipeNutrition, locked.recipeID, result, locked.inputHash)
		return err
	})
}

// FinalizeFailure records a failed outcome. When markDirty is set the recipe
// is flagged for re-enqueue on the next nightly run.
func (r *NutritionJobRepositoryPG) FinalizeFailure(ctx context.Context, jobID int64, reason string, markDirty bool) error {
	return r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		locked, err := lockNutritionJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if locked.status.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobFailed, jobID, truncateError(reason)); err != nil {
			return err
		}
		if markDirty {
			if _, err := tx.Exec(ctx, sqlinline.QMarkRecipeNutritionDirty, locked.recipeID); err != nil {
				return err
			}
		}
		return nil
	})
}

// QueuedNutritionJob is one queued job selected for batch submission.
type QueuedNutritionJob struct {
	JobID    int64
	RecipeID int64
	Servings int
}

// ListQueued returns up to limit queued jobs in creation order together with
// the recipe servings needed to build the request body.
func (r *NutritionJobRepositoryPG) ListQueued(ctx context.Context, limit int) ([]QueuedNutritionJob, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListQueuedNutritionJobs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []QueuedNutritionJob
	for rows.Next() {
		var job QueuedNutritionJob
		if err := rows.Scan(&job.JobID, &job.RecipeID, &job.Servings); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// PromptInputs loads the prompt inputs for one recipe outside of any claim.
// Used by the batch submitter, which serializes requests before submission.
func (r *NutritionJobRepositoryPG) PromptInputs(ctx context.Context, recipeID int64, servings int) (nutrition.Inputs, error) {
	rows, err := queryIngredientRows(ctx, r.runner, sqlinline.QSelectRecipeIngredientRowsForPrompt, recipeID)
	if err != nil {
		return nutrition.Inputs{}, err
	}
	return nutrition.BuildInputs(servings, rows), nil
}

// MarkSubmitted flips the given queued jobs to submitted with the shared
// batch id, all in one transaction. Returns how many rows were updated.
func (r *NutritionJobRepositoryPG) MarkSubmitted(ctx context.Context, jobIDs []int64, batchID string, submittedAt time.Time) (int64, error) {
	var updated int64
	err := r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		tag, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobsSubmitted, jobIDs, batchID, submittedAt)
		if err != nil {
			return err
		}
		updated = tag.RowsAffected()
		return nil
	})
	return updated, err
}

// SubmittedBatchIDs returns the distinct batch ids still referenced by
// submitted jobs.
func (r *NutritionJobRepositoryPG) SubmittedBatchIDs(ctx context.Context, max int) ([]string, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QDistinctSubmittedBatchIDs, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FailBatch marks every still-submitted job of the batch as failed and flags
// the owning recipes dirty. Jobs that already reached a terminal state are
// left untouched, so replaying a terminal batch status is a no-op.
func (r *NutritionJobRepositoryPG) FailBatch(ctx context.Context, batchID, reason string) (int, error) {
	failed := 0
	err := r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		rows, err := tx.Query(ctx, sqlinline.QSelectSubmittedJobIDsInBatch, batchID)
		if err != nil {
			return err
		}
		type member struct{ jobID, recipeID int64 }
		var members []member
		for rows.Next() {
			var m member
			if err := rows.Scan(&m.jobID, &m.recipeID); err != nil {
				rows.Close()
				return err
			}
			members = append(members, m)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, m := range members {
			if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobFailed, m.jobID, truncateError(reason)); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, sqlinline.QMarkRecipeNutritionDirty, m.recipeID); err != nil {
				return err
			}
			failed++
		}
		return nil
	})
	return failed, err
}

// BatchOutcome resolves one demultiplexed batch line inside the commit
// transaction, after the idempotency checks have passed. Returning a non-empty
// failReason fails the job and flags the recipe dirty; otherwise result is
// committed as a success.
type BatchOutcome func(recipeID int64, servings int) (result []byte, failReason string)

// FinalizeFromBatch applies one batch output line to its job. Terminal jobs
// and jobs whose batch id does not match are skipped with
// domain.ErrAlreadyFinalized, which makes replaying an output file a no-op.
func (r *NutritionJobRepositoryPG) FinalizeFromBatch(ctx context.Context, jobID int64, batchID string, outcome BatchOutcome) (succeeded bool, err error) {
	err = r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		locked, lockErr := lockNutritionJob(ctx, tx, jobID)
		if lockErr != nil {
			return lockErr
		}
		if locked.status.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if locked.batchID != batchID {
			return domain.ErrAlreadyFinalized
		}

		result, failReason := outcome(locked.recipeID, locked.servings)
		if failReason != "" {
			if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobFailed, jobID, truncateError(failReason)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, sqlinline.QMarkRecipeNutritionDirty, locked.recipeID)
			return err
		}

		if _, err := tx.Exec(ctx, sqlinline.QMarkNutritionJobSucceeded, jobID, result); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sqlinline.QUpdateRecipeNutrition, locked.recipeID, result, locked.inputHash); err != nil {
			return err
		}
		succeeded = true
		return nil
	})
	return succeeded, err
}

// NutritionCandidate is one recipe eligible for a new nutrition job.
type NutritionCandidate struct {
	RecipeID int64
	Servings int
}

// ListCandidates selects recipes needing a nutrition estimate: published
// (unless includeDrafts), with missing or dirty nutrition (unless force), and
// without an active job.
func (r *NutritionJobRepositoryPG) ListCandidates(ctx context.Context, limit int, includeDrafts, force bool) ([]NutritionCandidate, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListNutritionCandidates, includeDrafts, force, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []NutritionCandidate
	for rows.Next() {
		var c NutritionCandidate
		if err := rows.Scan(&c.RecipeID, &c.Servings); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// IngredientRowsForHash loads the hash-ordered ingredient rows for a recipe.
func (r *NutritionJobRepositoryPG) IngredientRowsForHash(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error) {
	return queryIngredientRows(ctx, r.runner, sqlinline.QSelectRecipeIngredientRowsForHash, recipeID)
}

// CreateJob inserts a queued job and stamps the recipe's last-enqueued time in
// one transaction.
func (r *NutritionJobRepositoryPG) CreateJob(ctx context.Context, recipeID int64, inputHash string) (int64, error) {
	var jobID int64
	err := r.runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QInsertNutritionJob, recipeID, inputHash)
		if err := row.Scan(&jobID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, sqlinline.QStampNutritionEnqueued, recipeID)
		return err
	})
	return jobID, err
}

type lockedNutritionJob struct {
	status    domain.JobStatus
	recipeID  int64
	inputHash string
	batchID   string
	servings  int
}

func lockNutritionJob(ctx context.Context, tx infra.SQLExecutor, jobID int64) (lockedNutritionJob, error) {
	row := tx.QueryRow(ctx, sqlinline.QSelectNutritionJobForUpdate, jobID)
	var locked lockedNutritionJob
	if err := row.Scan(&locked.status, &locked.recipeID, &locked.inputHash, &locked.batchID, &locked.servings); err != nil {
		if infra.IsNoRows(err) {
			return lockedNutritionJob{}, fmt.Errorf("nutrition job %d: %w", jobID, domain.ErrNotFound)
		}
		return lockedNutritionJob{}, err
	}
	return locked, nil
}
