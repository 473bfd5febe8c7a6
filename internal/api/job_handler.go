package api

import (
	"net/http"

	"github.com/draftforge/draftforge-api/internal/api/shared"
	"github.com/draftforge/draftforge-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// JobHandler handles job-related HTTP requests.
type JobHandler struct {
	jobService *service.JobService
	validator  *validator.Validate
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		validator:  validator.New(),
	}
}

// CreateJob handles POST /api/jobs requests.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	organizationID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid organization_id")
		return
	}

	j, err := h.jobService.EnqueueJob(r.Context(), req.Type, organizationID, req.Payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// 202: the job is queued, processing happens asynchronously.
	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(j))
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := parseJobID(w, r)
	if !ok {
		return
	}

	j, err := h.jobService.GetJob(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(j))
}

// GetJobMaterials handles GET /api/jobs/{id}/materials requests.
func (h *JobHandler) GetJobMaterials(w http.ResponseWriter, r *http.Request) {
	id, ok := parseJobID(w, r)
	if !ok {
		return
	}

	materials, err := h.jobService.GetJobMaterials(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]MaterialResponse, 0, len(materials))
	for _, m := range materials {
		responses = append(responses, materialToResponse(m))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// parseJobID extracts and parses the {id} URL parameter, writing a 400
// response on failure.
func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return id, true
}
