package api

import (
	"encoding/json"
	"time"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
)

// CreateJobRequest represents the request body for enqueuing a new job.
type CreateJobRequest struct {
	Type           string          `json:"type"            validate:"required"`
	OrganizationID string          `json:"organization_id" validate:"required,uuid"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// JobResponse is the external status projection of a job. Internal claim
// state (heartbeats, attempt scheduling) is deliberately not exposed.
type JobResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	OrganizationID string          `json:"organization_id"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	RetryCount     int             `json:"retry_count"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// MaterialResponse represents one generated content artifact.
type MaterialResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkerRunResponse reports one worker trigger invocation.
type WorkerRunResponse struct {
	JobsProcessed int `json:"jobs_processed"`
}

// ReconcilerRunResponse reports one reconciliation sweep.
type ReconcilerRunResponse struct {
	Scanned    int `json:"scanned"`
	Stalled    int `json:"stalled"`
	Reconciled int `json:"reconciled"`
	Healthy    int `json:"healthy"`
}

// jobToResponse converts a job.Job to its external projection.
func jobToResponse(j *job.Job) JobResponse {
	return JobResponse{
		ID:             j.ID.String(),
		Type:           j.Type,
		Status:         string(j.Status),
		OrganizationID: j.OrganizationID.String(),
		Result:         j.Result,
		Error:          j.Error,
		RetryCount:     j.RetryCount,
		CreatedAt:      j.CreatedAt,
		CompletedAt:    j.CompletedAt,
	}
}

// materialToResponse converts a material.Material to its API shape.
func materialToResponse(m *material.Material) MaterialResponse {
	return MaterialResponse{
		ID:        m.ID.String(),
		Kind:      string(m.Kind),
		Title:     m.Title,
		Content:   m.Content,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
	}
}
