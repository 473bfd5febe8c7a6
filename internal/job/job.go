package job

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job.
type Status string

// Possible job status values.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Common validation errors for Job.
var (
	ErrEmptyJobID             = errors.New("job ID cannot be empty")
	ErrEmptyJobType           = errors.New("job type cannot be empty")
	ErrEmptyJobOrganizationID = errors.New("job organization ID cannot be empty")
	ErrInvalidJobStatus       = errors.New("invalid job status")
)

// Job is the single persistent entity of the orchestration engine. Its
// payload is the entire working state of a multi-step job; nothing is held
// in worker memory between invocations.
type Job struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	Status         Status          `json:"status"`
	Payload        json.RawMessage `json:"payload"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	OrganizationID uuid.UUID       `json:"organization_id"`

	// CreatedAt doubles as the FIFO ordering key and is rewritten on
	// re-queue so a yielded job goes to the back of the line.
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`

	// NextAttemptAt is the earliest time a failed-and-retryable job becomes
	// eligible again; nil means immediately eligible.
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	RetryCount    int        `json:"retry_count"`
}

// New creates a queued Job of the given type for the given tenant.
// It generates a new UUID for the job ID and sets the creation timestamp.
// Returns an error if validation fails.
func New(jobType string, organizationID uuid.UUID, payload json.RawMessage) (*Job, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	j := &Job{
		ID:             uuid.New(),
		Type:           jobType,
		Status:         StatusQueued,
		Payload:        payload,
		OrganizationID: organizationID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := j.Validate(); err != nil {
		return nil, err
	}

	return j, nil
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.Type == "" {
		return ErrEmptyJobType
	}

	if j.OrganizationID == uuid.Nil {
		return ErrEmptyJobOrganizationID
	}

	if !isValidStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// LastActivity returns the most recent liveness signal for the job:
// the latest of last_heartbeat, started_at, and created_at. The reconciler
// measures staleness against this value.
func (j *Job) LastActivity() time.Time {
	latest := j.CreatedAt
	if j.StartedAt != nil && j.StartedAt.After(latest) {
		latest = *j.StartedAt
	}
	if j.LastHeartbeat != nil && j.LastHeartbeat.After(latest) {
		latest = *j.LastHeartbeat
	}
	return latest
}

// isValidStatus checks if the given status is one of the defined values.
func isValidStatus(s Status) bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}
