package domain

import "time"

// JobStatus enumerates job lifecycle states. Transitions are monotonic:
// queued -> running -> (succeeded|failed), or for batch-mode nutrition jobs
// queued -> submitted -> (succeeded|failed). There are no backward transitions.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal jobs must never be
// mutated again; late batch lines for them are dropped.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// TokenUsage mirrors the usage counters returned by the chat completion API.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationJob tracks one AI recipe-generation request. ResultRecipeID is set
// only after the result commit creates the recipe.
type GenerationJob struct {
	ID                    int64
	UserID                string
	Status                JobStatus
	Inputs                []byte
	SelectedIngredientIDs []int64
	ResultRecipeID        *int64
	ResultRecipeSlug      string
	Error                 string
	TokenUsage            *TokenUsage
	CreatedAt             time.Time
	UpdatedAt             time.Time
	StartedAt             *time.Time
	FinishedAt            *time.Time
}

// ImageJob tracks one hero-image generation for an existing recipe.
type ImageJob struct {
	ID         int64
	RecipeID   int64
	Status     JobStatus
	Prompt     string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// NutritionJob tracks one nutrition estimation for an existing recipe.
// InputHash fingerprints the ingredient rows and servings captured at enqueue
// time; a mismatch at claim time means the job is stale. BatchID correlates
// the job to an external batch submission in batch mode.
type NutritionJob struct {
	ID               int64
	RecipeID         int64
	Status           JobStatus
	InputHash        string
	Result           []byte
	Error            string
	BatchID          string
	BatchSubmittedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	FinishedAt       *time.Time
}
