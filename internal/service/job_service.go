package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
	"github.com/google/uuid"
)

// ErrInvalidPayload is returned when an enqueue payload is not a JSON object.
var ErrInvalidPayload = errors.New("payload must be a JSON object")

// JobService is the producer-side application service: it validates and
// enqueues new jobs and answers status queries. Type validation happens here,
// before any row exists, so a job of an unknown type is rejected without
// touching the store.
type JobService struct {
	jobStore      job.Store
	materialStore material.Store
	registry      *job.Registry
	maxBytes      int
	logger        *slog.Logger
}

// NewJobService creates a JobService. maxPayloadBytes bounds the initial
// payload size; zero disables the bound.
func NewJobService(jobStore job.Store, materialStore material.Store, registry *job.Registry, maxPayloadBytes int, logger *slog.Logger) (*JobService, error) {
	if jobStore == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if materialStore == nil {
		return nil, errors.New("material store cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &JobService{
		jobStore:      jobStore,
		materialStore: materialStore,
		registry:      registry,
		maxBytes:      maxPayloadBytes,
		logger:        logger.With("component", "job_service"),
	}, nil
}

// EnqueueJob validates and inserts a new queued job. The type must have a
// registered executor and the payload, when present, must be a JSON object
// within the configured size bound.
func (s *JobService) EnqueueJob(ctx context.Context, jobType string, organizationID uuid.UUID, payload json.RawMessage) (*job.Job, error) {
	if _, err := s.registry.Resolve(jobType); err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		var doc map[string]any
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	if s.maxBytes > 0 && len(payload) > s.maxBytes {
		return nil, fmt.Errorf("%w: payload is %d bytes (cap %d)",
			job.ErrPayloadTooLarge, len(payload), s.maxBytes)
	}

	j, err := job.New(jobType, organizationID, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.jobStore.Enqueue(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.logger.InfoContext(ctx, "job enqueued",
		"job_id", j.ID,
		"job_type", j.Type,
		"organization_id", j.OrganizationID)

	return j, nil
}

// GetJob retrieves a job by ID.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	return s.jobStore.GetJob(ctx, id)
}

// GetJobMaterials returns the materials a job has produced so far, ordered by
// position. Available while the job is still running, so callers can stream
// partial output of a multi-step generation.
func (s *JobService) GetJobMaterials(ctx context.Context, jobID uuid.UUID) ([]*material.Material, error) {
	if _, err := s.jobStore.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.materialStore.ListForJob(ctx, jobID)
}
