package events

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle phases reported by the orchestrator.
const (
	PhaseClaimed    = "claimed"
	PhaseHeartbeat  = "heartbeat"
	PhaseYielded    = "yielded"
	PhaseCompleted  = "completed"
	PhaseFailed     = "failed"
	PhaseStalled    = "stalled"
	PhaseReconciled = "reconciled"
	PhaseAudit      = "audit"
)

// ProgressEvent is an observability signal about one job's lifecycle. Events
// are advisory: consumers may drop them, and producers never wait on them.
type ProgressEvent struct {
	JobID      uuid.UUID      `json:"job_id"`
	Phase      string         `json:"phase"`
	Progress   int            `json:"progress"` // 0..100, best effort
	Message    string         `json:"message,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewProgressEvent creates a ProgressEvent stamped with the current time.
func NewProgressEvent(jobID uuid.UUID, phase string, progress int, message string, meta map[string]any) ProgressEvent {
	return ProgressEvent{
		JobID:      jobID,
		Phase:      phase,
		Progress:   progress,
		Message:    message,
		Meta:       meta,
		OccurredAt: time.Now().UTC(),
	}
}
