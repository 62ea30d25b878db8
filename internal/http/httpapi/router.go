package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"recipehub/internal/http/handlers"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api/ai/recipe-jobs", func(r chi.Router) {
		r.Post("/", app.CreateRecipeJob)
		r.Get("/{id}", app.GetRecipeJob)
	})

	return r
}
