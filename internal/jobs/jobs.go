// Package jobs implements the processing pipelines on top of the repositories:
// claim a job, call the provider outside any lock, commit the result through
// the idempotent finalize path.
package jobs

import (
	"context"

	"recipehub/internal/domain"
	"recipehub/internal/providers/openai"
)

// Outcome classifies one processed job for the run summaries.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeStale
	// OutcomeSkipped means another process finalized the job first; nothing
	// was written.
	OutcomeSkipped
)

// ChatCompleter is the provider surface shared by the text pipelines.
type ChatCompleter interface {
	ChatJSON(ctx context.Context, req openai.ChatRequest) (string, *domain.TokenUsage, error)
}

// ImageGenerator is the provider surface for the image pipeline.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req openai.ImageRequest) ([]byte, error)
}
