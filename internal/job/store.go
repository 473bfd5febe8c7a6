package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence contract the orchestrator depends on. Every
// status-transitioning method is a conditional update guarded by the row's
// expected current status; a guard that matches zero rows surfaces as
// store.ErrStatusConflict so callers can tell a lost race from a real error.
type Store interface {
	// Enqueue inserts a new job row in status queued.
	Enqueue(ctx context.Context, j *Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// Claim atomically transitions the oldest eligible queued job of one of
	// the given types to processing and returns it. Eligible means
	// next_attempt_at is null or in the past. Returns ErrNoJobAvailable
	// when nothing qualifies. This is the sole mechanism guaranteeing
	// at-most-one active executor per job under concurrent workers.
	Claim(ctx context.Context, now time.Time, types []string) (*Job, error)

	// MarkDone transitions a processing job to done with its result.
	MarkDone(ctx context.Context, id uuid.UUID, result json.RawMessage, now time.Time) error

	// MarkFailed transitions a processing job to failed, recording the
	// error verbatim, incrementing retry_count, and persisting the next
	// eligible attempt time. A nil nextAttemptAt marks the failure fatal.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, nextAttemptAt *time.Time, now time.Time) error

	// Requeue re-queues a yielded processing job at the back of the FIFO
	// order: payload replaced, created_at rewritten to now, and started_at,
	// last_heartbeat and next_attempt_at reset to null.
	Requeue(ctx context.Context, id uuid.UUID, payload json.RawMessage, now time.Time) error

	// Heartbeat refreshes last_heartbeat on a processing job. A row that is
	// no longer processing is a no-op, not an error.
	Heartbeat(ctx context.Context, id uuid.UUID, now time.Time) error

	// ListProcessing returns all jobs currently in processing, oldest first.
	ListProcessing(ctx context.Context) ([]*Job, error)

	// FailIfStale transitions a processing job to failed only if its latest
	// liveness signal is still before cutoff at the moment of the update.
	// The guard closes the race against a worker that heartbeats at the
	// last moment. Returns false when the guard did not match.
	FailIfStale(ctx context.Context, id uuid.UUID, cutoff time.Time, errMsg string, now time.Time) (bool, error)

	// CompleteFromArtifact transitions a processing job to done with the
	// given reconstructed result. Used by the reconciler when external
	// ground truth proves the work finished even though the worker died
	// before reporting. Returns false when the row is no longer processing.
	CompleteFromArtifact(ctx context.Context, id uuid.UUID, result json.RawMessage, now time.Time) (bool, error)
}
