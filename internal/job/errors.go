package job

import "errors"

// Orchestration error taxonomy. These are the conditions the worker loop and
// reconciler branch on; executor-thrown errors stay opaque and are persisted
// verbatim.
var (
	// ErrUnknownJobType is returned when a job type has no registered
	// executor. It must surface before any state mutation: enqueue rejects
	// it and the claim query never selects unregistered types.
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrDuplicateJobType is returned when two executors register under the
	// same type key.
	ErrDuplicateJobType = errors.New("job type already registered")

	// ErrYieldBudgetExceeded is returned when a job yields more times than
	// the configured cap allows. The job is failed fatally, never retried:
	// a runaway self-requeuing loop requires human review.
	ErrYieldBudgetExceeded = errors.New("yield budget exceeded")

	// ErrPayloadTooLarge is returned when an enqueued or recomputed payload
	// exceeds the configured size bound. Unbounded payload growth across
	// yields would otherwise accumulate silently.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidYield is returned when a yield request carries neither a
	// replacement payload nor a patch, or a malformed one.
	ErrInvalidYield = errors.New("invalid yield request")
)
