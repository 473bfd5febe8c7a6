package main

import (
	"net/http"

	"github.com/draftforge/draftforge-api/internal/api"
	apimiddleware "github.com/draftforge/draftforge-api/internal/api/middleware"
	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/service/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// buildRouter assembles the HTTP routing tree: the public job API and the
// token-guarded internal trigger endpoints.
func buildRouter(jobs *api.JobHandler, triggers *api.TriggerHandler, tokens auth.TriggerTokenService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithJSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", jobs.CreateJob)
		r.Get("/jobs/{id}", jobs.GetJob)
		r.Get("/jobs/{id}/materials", jobs.GetJobMaterials)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(apimiddleware.NewTriggerAuthMiddleware(tokens).Authenticate)
		r.Post("/worker/run", triggers.RunWorker)
		r.Post("/reconciler/run", triggers.RunReconciler)
	})

	return r
}
