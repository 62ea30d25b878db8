package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"recipehub/internal/domain"
)

// GenerationJobAPI is the persistence surface the HTTP handlers need.
type GenerationJobAPI interface {
	CreateJob(ctx context.Context, userID string, inputs []byte, selectedIngredientIDs []int64) (*domain.GenerationJob, error)
	GetJobForUser(ctx context.Context, jobID int64, userID string) (*domain.GenerationJob, error)
}

type App struct {
	Jobs   GenerationJobAPI
	Pool   *pgxpool.Pool
	Logger zerolog.Logger

	validate *validator.Validate
}

func NewApp(jobs GenerationJobAPI, pool *pgxpool.Pool, logger zerolog.Logger) *App {
	return &App{
		Jobs:     jobs,
		Pool:     pool,
		Logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
