package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mealsmith/mealsmith-api/internal/api"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	planHandler := api.NewPlanHandler(app.planService, app.statusService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/plans/generate", planHandler.Generate)
		r.Get("/jobs/{jobID}", planHandler.GetJobStatus)
		r.Delete("/jobs/{jobID}", planHandler.CancelJob)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
