package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoJobAvailable   = errors.New("no job available")
	ErrAlreadyFinalized = errors.New("job already finalized")
	ErrMissingAPIKey    = errors.New("OPENAI_API_KEY is not set")
)
