package api

import (
	"net/http"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/reconciler"
	"github.com/draftforge/draftforge-api/internal/worker"
)

// TriggerHandler handles the scheduler-facing trigger endpoints. The worker
// and reconciler hold no state between invocations, so each request is one
// complete, independent run.
type TriggerHandler struct {
	worker     *worker.Worker
	reconciler *reconciler.Reconciler
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(w *worker.Worker, r *reconciler.Reconciler) *TriggerHandler {
	return &TriggerHandler{
		worker:     w,
		reconciler: r,
	}
}

// RunWorker handles POST /internal/worker/run requests: one worker run that
// drains up to the configured number of claims.
func (h *TriggerHandler) RunWorker(w http.ResponseWriter, r *http.Request) {
	processed, err := h.worker.Run(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Worker run failed", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, WorkerRunResponse{
		JobsProcessed: processed,
	})
}

// RunReconciler handles POST /internal/reconciler/run requests: one sweep
// over all processing jobs.
func (h *TriggerHandler) RunReconciler(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Run(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Reconciler run failed", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReconcilerRunResponse{
		Scanned:    report.Scanned,
		Stalled:    report.Stalled,
		Reconciled: report.Reconciled,
		Healthy:    report.Healthy,
	})
}
