package jobs

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
	"recipehub/internal/domain"
	"recipehub/internal/providers/openai"
	"recipehub/internal/recipeimage"
	"recipehub/internal/storage"
)

// ImageStore is the persistence surface the image pipeline needs.
type ImageStore interface {
	ClaimNext(ctx context.Context, buildPrompt func(title string, ingredientNames []string) string) (*repo.ImageClaim, error)
	FinalizeSuccess(ctx context.Context, jobID int64, imagePath string) error
	FinalizeFailure(ctx context.Context, jobID int64, reason string) error
}

// FileWriter persists generated image bytes and returns the storage key.
type FileWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// ImageProcessor turns queued image jobs into stored hero images.
type ImageProcessor struct {
	Store  ImageStore
	Images ImageGenerator
	Files  FileWriter

	Model         string
	FallbackModel string
	Size          string

	Logger zerolog.Logger
}

// ProcessOne claims and resolves a single job. Returns
// domain.ErrNoJobAvailable when the queue is empty.
func (p *ImageProcessor) ProcessOne(ctx context.Context) (Outcome, error) {
	claim, err := p.Store.ClaimNext(ctx, recipeimage.BuildPrompt)
	if err != nil {
		return OutcomeSkipped, err
	}
	logger := p.Logger.With().Int64("job_id", claim.JobID).Int64("recipe_id", claim.RecipeID).Logger()

	if claim.Resolved {
		logger.Info().Msg("recipe already has an image, job resolved at claim")
		return OutcomeSkipped, nil
	}

	data, err := p.Images.GenerateImage(ctx, openai.ImageRequest{
		Model:         p.Model,
		FallbackModel: p.FallbackModel,
		Prompt:        claim.Prompt,
		Size:          p.Size,
	})
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, err.Error())
	}

	key, err := p.Files.Write(ctx, storage.HeroImageKey(claim.Slug), data)
	if err != nil {
		return p.fail(ctx, logger, claim.JobID, "store_image: "+err.Error())
	}

	if err := p.Store.FinalizeSuccess(ctx, claim.JobID, key); err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			logger.Warn().Msg("image job already finalized, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	logger.Info().Str("image_path", key).Msg("image job succeeded")
	return OutcomeSucceeded, nil
}

func (p *ImageProcessor) fail(ctx context.Context, logger zerolog.Logger, jobID int64, reason string) (Outcome, error) {
	if err := p.Store.FinalizeFailure(ctx, jobID, reason); err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			logger.Warn().Msg("image job already finalized, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}
	logger.Warn().Str("reason", reason).Msg("image job failed")
	return OutcomeFailed, nil
}
