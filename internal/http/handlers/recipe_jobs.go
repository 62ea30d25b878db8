package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"recipehub/internal/domain"
	"recipehub/internal/recipegen"
)

// userIDHeader identifies the caller. Authentication itself happens upstream
// at the gateway; this service only scopes job reads to the submitting user.
const userIDHeader = "X-User-ID"

type createJobRequest struct {
	DishType              string   `json:"dish_type" validate:"required,max=100"`
	HaveIngredientIDs     []int64  `json:"have_ingredient_ids" validate:"omitempty,max=50,dive,gt=0"`
	HaveIngredientsText   []string `json:"have_ingredients_text" validate:"omitempty,max=50,dive,max=100"`
	CanBuyIngredientIDs   []int64  `json:"can_buy_ingredient_ids" validate:"omitempty,max=50,dive,gt=0"`
	CanBuyIngredientsText []string `json:"can_buy_ingredients_text" validate:"omitempty,max=50,dive,max=100"`
	PrepSpeed             string   `json:"prep_speed" validate:"omitempty,oneof=slow medium fast"`
	Exclude               []string `json:"exclude" validate:"omitempty,max=20,dive,max=100"`
}

type jobResponse struct {
	ID               int64      `json:"id"`
	Status           string     `json:"status"`
	ResultRecipeID   *int64     `json:"result_recipe_id,omitempty"`
	ResultRecipeSlug string     `json:"result_recipe_slug,omitempty"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// CreateRecipeJob enqueues a generation job and answers 202 immediately; the
// worker resolves it asynchronously.
func (a *App) CreateRecipeJob(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		a.jsonError(w, http.StatusUnauthorized, "missing user id")
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		a.jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payload := recipegen.Payload{
		DishType:              req.DishType,
		HaveIngredientIDs:     req.HaveIngredientIDs,
		HaveIngredientsText:   req.HaveIngredientsText,
		CanBuyIngredientIDs:   req.CanBuyIngredientIDs,
		CanBuyIngredientsText: req.CanBuyIngredientsText,
		PrepSpeed:             req.PrepSpeed,
		Exclude:               req.Exclude,
	}
	inputs, err := json.Marshal(&payload)
	if err != nil {
		a.jsonError(w, http.StatusInternalServerError, "encode inputs failed")
		return
	}

	job, err := a.Jobs.CreateJob(r.Context(), userID, inputs, payload.SelectedIngredientIDs())
	if err != nil {
		a.Logger.Error().Err(err).Msg("create generation job failed")
		a.jsonError(w, http.StatusInternalServerError, "create job failed")
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{
		ID:        job.ID,
		Status:    string(domain.JobStatusQueued),
		CreatedAt: job.CreatedAt,
	})
}

// GetRecipeJob returns the job status for polling clients. Jobs of other
// users answer 404, not 403, so job ids cannot be enumerated.
func (a *App) GetRecipeJob(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		a.jsonError(w, http.StatusUnauthorized, "missing user id")
		return
	}
	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || jobID <= 0 {
		a.jsonError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := a.Jobs.GetJobForUser(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Int64("job_id", jobID).Msg("load generation job failed")
		a.jsonError(w, http.StatusInternalServerError, "load job failed")
		return
	}
	a.json(w, http.StatusOK, jobResponse{
		ID:               job.ID,
		Status:           string(job.Status),
		ResultRecipeID:   job.ResultRecipeID,
		ResultRecipeSlug: job.ResultRecipeSlug,
		Error:            job.Error,
		CreatedAt:        job.CreatedAt,
		StartedAt:        job.StartedAt,
		FinishedAt:       job.FinishedAt,
	})
}
