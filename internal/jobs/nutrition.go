package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/nutrition"
)

// NutritionStore is the persistence surface the synchronous nutrition
// pipeline needs.
type NutritionStore interface {
	ClaimNext(ctx context.Context) (*repo.NutritionClaim, error)
	ListQueued(ctx context.Context, limit int) ([]repo.QueuedNutritionJob, error)
	FinalizeSuccess(ctx context.Context, jobID int64, result []byte) error
	FinalizeFailure(ctx context.Context, jobID int64, reason string, markDirty bool) error
}

// NutritionProcessor resolves queued nutrition jobs one at a time against the
// chat completion API.
type NutritionProcessor struct {
	Store  NutritionStore
	Chat   ChatCompleter
	Model  string
	Logger zerolog.Logger
	Now    func() time.Time
}

// NutritionSummary counts the outcomes of one processing run.
type NutritionSummary struct {
	Processed int
	Succeeded int
	Failed    int
	Stale     int
	Skipped   int
	DryRun    bool
}

// Run processes up to limit jobs and stops early when the queue drains. With
// dryRun it only reports the jobs that would be claimed and leaves every one
// of them queued.
func (p *NutritionProcessor) Run(ctx context.Context, limit int, dryRun bool) (NutritionSummary, error) {
	if dryRun {
		return p.dryRun(ctx, limit)
	}
	var summary NutritionSummary
	for i := 0; i < limit; i++ {
		outcome, err := p.ProcessOne(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoJobAvailable) {
				return summary, nil
			}
			return summary, err
		}
		summary.Processed++
		switch outcome {
		case OutcomeSucceeded:
			summary.Succeeded++
		case OutcomeFailed:
			summary.Failed++
		case OutcomeStale:
			summary.Stale++
		case OutcomeSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}

func (p *NutritionProcessor) dryRun(ctx context.Context, limit int) (NutritionSummary, error) {
	summary := NutritionSummary{DryRun: true}
	queued, err := p.Store.ListQueued(ctx, limit)
	if err != nil {
		return summary, err
	}
	for _, job := range queued {
		p.Logger.Info().
			Int64("job_id", job.JobID).
			Int64("recipe_id", job.RecipeID).
			Int("servings", job.Servings).
			Msg("dry run: nutrition job would be processed")
	}
	summary.Processed = len(queued)
	return summary, nil
}

// ProcessOne claims and resolves a single job. Stale jobs are already failed
// inside the claim transaction and reported as OutcomeStale without any
// provider call. Returns domain.ErrNoJobAvailable when the queue is empty.
func (p *NutritionProcessor) ProcessOne(ctx context.Context) (Outcome, error) {
	claim, err := p.Store.ClaimNext(ctx)
	if err != nil {
		return OutcomeSkipped, err
	}
	logger := p.Logger.With().Int64("job_id", claim.JobID).Int64("recipe_id", claim.RecipeID).Logger()

	if claim.Stale {
		logger.Warn().Msg("nutrition job stale, recipe changed after enqueue")
		return OutcomeStale, nil
	}

	content, _, err := p.Chat.ChatJSON(ctx, nutrition.BuildChatRequest(p.Model, claim.Inputs))
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, err.Error())
	}
	result, err := nutrition.Parse(content, claim.Servings, p.now())
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, err.Error())
	}

	if err := p.Store.FinalizeSuccess(ctx, claim.JobID, result); err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			logger.Warn().Msg("nutrition job already finalized, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	logger.Info().Msg("nutrition job succeeded")
	return OutcomeSucceeded, nil
}

func (p *NutritionProcessor) fail(ctx context.Context, logger zerolog.Logger, jobID int64, reason string) (Outcome, error) {
	if err := p.Store.FinalizeFailure(ctx, jobID, reason, true); err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			logger.Warn().Msg("nutrition job already finalized, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	logger.Warn().Str("reason", reason).Msg("nutrition job failed")
	return OutcomeFailed, nil
}

func (p *NutritionProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
