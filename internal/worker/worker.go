package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/google/uuid"
)

// Config holds configuration for the worker loop.
type Config struct {
	// HeartbeatInterval is how often the liveness timestamp is refreshed
	// while an executor runs. Zero disables heartbeats.
	HeartbeatInterval time.Duration

	// MaxYields caps how many times a single job may yield before it is
	// failed as a runaway.
	MaxYields int

	// BackoffBase and BackoffMax parameterize the retry schedule computed
	// on terminal failure (clamped, see NextAttemptDelay).
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// MaxJobsPerRun bounds how many jobs a single Run invocation drains.
	MaxJobsPerRun int

	// MaxPayloadBytes bounds payloads recomputed on yield.
	MaxPayloadBytes int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		MaxYields:         50,
		BackoffBase:       5 * time.Second,
		BackoffMax:        10 * time.Minute,
		MaxJobsPerRun:     5,
		MaxPayloadBytes:   256 * 1024,
	}
}

// Worker claims queued jobs and runs their executors. It holds no
// cross-invocation state: every Run starts from the job store, so any number
// of workers may run concurrently with no coordination beyond the store's
// atomic claim.
type Worker struct {
	store    job.Store
	registry *job.Registry
	emitter  events.Emitter
	config   Config
	logger   *slog.Logger
}

// New creates a Worker. A nil emitter is replaced with a no-op sink.
func New(jobStore job.Store, registry *job.Registry, emitter events.Emitter, config Config, logger *slog.Logger) (*Worker, error) {
	if jobStore == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if config.MaxJobsPerRun <= 0 {
		config.MaxJobsPerRun = DefaultConfig().MaxJobsPerRun
	}

	return &Worker{
		store:    jobStore,
		registry: registry,
		emitter:  emitter,
		config:   config,
		logger:   logger.With("component", "worker"),
	}, nil
}

// Run drains up to MaxJobsPerRun jobs and returns how many were processed.
// It stops early when the queue is empty or the context is cancelled.
func (w *Worker) Run(ctx context.Context) (int, error) {
	processed := 0
	for processed < w.config.MaxJobsPerRun {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		claimed, err := w.RunOnce(ctx)
		if err != nil {
			return processed, err
		}
		if !claimed {
			break
		}
		processed++
	}
	return processed, nil
}

// RunOnce claims and processes a single job. It returns false when no
// eligible job was available. A processed job always leaves processing:
// the terminal/yield transition is mandatory even when the executor fails
// or panics.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	types := w.registry.Types()
	if len(types) == 0 {
		w.logger.Warn("no executors registered, nothing to claim")
		return false, nil
	}

	now := time.Now().UTC()
	j, err := w.store.Claim(ctx, now, types)
	if err != nil {
		if errors.Is(err, store.ErrNoJobAvailable) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim job: %w", err)
	}

	logger := w.logger.With("job_id", j.ID, "job_type", j.Type)
	logger.Info("claimed job", "retry_count", j.RetryCount, "yield_count", job.YieldCount(j.Payload))
	w.emit(ctx, j.ID, events.PhaseClaimed, 0, "", map[string]any{
		"type":        j.Type,
		"retry_count": j.RetryCount,
	})

	// The claim query filters on registered types, so resolution can only
	// fail if the registry changed under us. Fatal either way.
	executor, err := w.registry.Resolve(j.Type)
	if err != nil {
		w.failJob(ctx, j, err, true, logger)
		return true, nil
	}

	execPayload, err := job.InjectContext(j.Payload, j.OrganizationID)
	if err != nil {
		w.failJob(ctx, j, err, true, logger)
		return true, nil
	}

	stopHeartbeat := w.startHeartbeat(ctx, j.ID, logger)
	outcome, execErr := w.execute(ctx, executor, job.ExecutionContext{
		JobID:          j.ID,
		OrganizationID: j.OrganizationID,
		Payload:        execPayload,
	})
	stopHeartbeat()

	switch {
	case execErr != nil:
		w.failJob(ctx, j, execErr, false, logger)
	case outcome.Yield != nil:
		w.requeueJob(ctx, j, outcome.Yield, logger)
	default:
		w.completeJob(ctx, j, outcome.Result, logger)
	}

	return true, nil
}

// execute invokes the executor, converting a panic into an error so the
// failure path still runs.
func (w *Worker) execute(ctx context.Context, executor job.Executor, ec job.ExecutionContext) (outcome job.Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("executor panicked: %v", p)
		}
	}()
	return executor.Execute(ctx, ec)
}

// completeJob persists the terminal success state.
func (w *Worker) completeJob(ctx context.Context, j *job.Job, result json.RawMessage, logger *slog.Logger) {
	now := time.Now().UTC()
	if err := w.store.MarkDone(ctx, j.ID, result, now); err != nil {
		if store.IsConflictError(err) {
			logger.Warn("job no longer processing, skipping completion write")
			return
		}
		logger.Error("failed to persist job completion", "error", err)
		return
	}

	logger.Info("job completed")
	w.emit(ctx, j.ID, events.PhaseCompleted, 100, "", nil)
}

// requeueJob applies the yield request and re-queues the job at the back of
// the FIFO order. A yield-budget or payload-size breach fails the job fatally
// instead.
func (w *Worker) requeueJob(ctx context.Context, j *job.Job, y *job.Yield, logger *slog.Logger) {
	next, err := job.NextPayload(j.Payload, y, w.config.MaxYields, w.config.MaxPayloadBytes)
	if err != nil {
		w.failJob(ctx, j, err, true, logger)
		return
	}

	now := time.Now().UTC()
	if err := w.store.Requeue(ctx, j.ID, next, now); err != nil {
		if store.IsConflictError(err) {
			logger.Warn("job no longer processing, skipping requeue")
			return
		}
		logger.Error("failed to requeue yielded job", "error", err)
		return
	}

	count := job.YieldCount(next)
	logger.Info("job yielded", "message", y.Message, "yield_count", count)
	w.emit(ctx, j.ID, events.PhaseYielded, 0, y.Message, map[string]any{
		"yield_count": count,
	})
}

// failJob persists the terminal failure state. The executor's error message
// is preserved verbatim for operator diagnosis. Non-fatal failures get a
// next-eligible time from the backoff policy; fatal ones (unknown type,
// yield budget, payload bound) do not.
func (w *Worker) failJob(ctx context.Context, j *job.Job, cause error, fatal bool, logger *slog.Logger) {
	now := time.Now().UTC()

	var nextAttemptAt *time.Time
	if !fatal {
		next := now.Add(NextAttemptDelay(j.RetryCount, w.config.BackoffBase, w.config.BackoffMax))
		nextAttemptAt = &next
	}

	if err := w.store.MarkFailed(ctx, j.ID, cause.Error(), nextAttemptAt, now); err != nil {
		if store.IsConflictError(err) {
			logger.Warn("job no longer processing, skipping failure write", "cause", cause)
			return
		}
		logger.Error("failed to persist job failure", "error", err, "cause", cause)
		return
	}

	logger.Error("job execution failed", "error", cause, "fatal", fatal)
	w.emit(ctx, j.ID, events.PhaseFailed, 0, cause.Error(), map[string]any{
		"fatal":   fatal,
		"attempt": j.RetryCount + 1,
	})
}

// startHeartbeat launches the liveness goroutine for an in-flight job and
// returns a stop function. Heartbeat writes are best-effort: a failed update
// is logged and never interrupts the executor.
func (w *Worker) startHeartbeat(ctx context.Context, id uuid.UUID, logger *slog.Logger) func() {
	if w.config.HeartbeatInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.config.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.store.Heartbeat(ctx, id, time.Now().UTC()); err != nil {
					logger.Warn("heartbeat update failed", "error", err)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// emit publishes a progress event inside its own error boundary so a
// misbehaving sink can never fail a state transition.
func (w *Worker) emit(ctx context.Context, id uuid.UUID, phase string, progress int, message string, meta map[string]any) {
	defer func() {
		if p := recover(); p != nil {
			w.logger.Warn("progress emitter panicked", "panic", p, "phase", phase)
		}
	}()
	w.emitter.Emit(ctx, events.NewProgressEvent(id, phase, progress, message, meta))
}
