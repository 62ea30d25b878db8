package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/recipegen"
	"recipehub/internal/search"
)

// GenerationStore is the persistence surface the generation pipeline needs.
type GenerationStore interface {
	ClaimNext(ctx context.Context) (*repo.GenerationClaim, error)
	IngredientNames(ctx context.Context, ids []int64) (map[int64]string, error)
	FinalizeSuccess(ctx context.Context, jobID int64, draft repo.RecipeDraft, usage *domain.TokenUsage) (int64, error)
	FinalizeFailure(ctx context.Context, jobID int64, reason string) error
}

// RecipeDocSource builds search documents for freshly created recipes.
type RecipeDocSource interface {
	SearchDocument(ctx context.Context, recipeID int64) (*repo.RecipeSearchDoc, error)
}

// GenerationProcessor turns queued generation jobs into persisted recipes.
type GenerationProcessor struct {
	Store   GenerationStore
	Chat    ChatCompleter
	Recipes RecipeDocSource
	Search  *search.Client
	Model   string
	Logger  zerolog.Logger
}

// ProcessOne claims and resolves a single job. It returns
// domain.ErrNoJobAvailable when the queue is empty. Job-level failures are
// recorded on the job row and reported through the outcome, not the error.
func (p *GenerationProcessor) ProcessOne(ctx context.Context) (Outcome, error) {
	claim, err := p.Store.ClaimNext(ctx)
	if err != nil {
		return OutcomeSkipped, err
	}
	logger := p.Logger.With().Int64("job_id", claim.JobID).Logger()

	payload, err := recipegen.DecodePayload(claim.Inputs)
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, fmt.Sprintf("invalid_inputs: %v", err))
	}
	names, err := p.Store.IngredientNames(ctx, payload.SelectedIngredientIDs())
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, fmt.Sprintf("resolve_ingredients: %v", err))
	}
	inputs := recipegen.BuildInputs(payload, names)

	content, usage, err := p.Chat.ChatJSON(ctx, recipegen.BuildChatRequest(p.Model, inputs))
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, err.Error())
	}
	generated, err := recipegen.Parse(content)
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, err.Error())
	}

	draft := buildDraft(generated, claim.JobID)
	recipeID, err := p.Store.FinalizeSuccess(ctx, claim.JobID, draft, usage)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			logger.Warn().Msg("generation job already finalized, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	logger.Info().Int64("recipe_id", recipeID).Str("slug", draft.Slug).Msg("generation job succeeded")

	p.indexRecipe(ctx, logger, recipeID)
	return OutcomeSucceeded, nil
}

func (p *GenerationProcessor) fail(ctx context.Context, logger zerolog.Logger, jobID int64, reason string) (Outcome, error) {
	if err := p.Store.FinalizeFailure(ctx, jobID, reason); err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			logger.Warn().Msg("generation job already finalized, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	logger.Warn().Str("reason", reason).Msg("generation job failed")
	return OutcomeFailed, nil
}

func (p *GenerationProcessor) indexRecipe(ctx context.Context, logger zerolog.Logger, recipeID int64) {
	if p.Search == nil || p.Recipes == nil {
		return
	}
	doc, err := p.Recipes.SearchDocument(ctx, recipeID)
	if err != nil {
		logger.Warn().Err(err).Msg("load search document failed")
		return
	}
	p.Search.UpsertRecipe(ctx, doc)
}

func buildDraft(generated *recipegen.GeneratedRecipe, jobID int64) repo.RecipeDraft {
	steps := make([]domain.RecipeStep, 0, len(generated.Steps))
	for _, step := range generated.Steps {
		steps = append(steps, domain.RecipeStep{
			Order:       step.Order,
			Title:       step.Title,
			Description: step.Description,
			Duration:    step.Duration,
		})
	}
	return repo.RecipeDraft{
		Title:           generated.Title,
		Slug:            fmt.Sprintf("%s-%d", recipegen.Slugify(generated.Title), jobID),
		Description:     recipegen.ComposeDescription(generated),
		Note:            generated.Note,
		PreparationTime: generated.PreparationTime,
		CookingTime:     generated.CookingTime,
		Servings:        generated.Servings,
		Difficulty:      generated.Difficulty,
		Steps:           steps,
	}
}
