package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/google/uuid"
)

// ArtifactChecker consults external ground truth (e.g., produced content
// artifacts in storage) to decide whether a job's work actually finished.
// When it did, the checker returns the result document to persist.
type ArtifactChecker interface {
	CheckArtifact(ctx context.Context, j *job.Job) (json.RawMessage, bool, error)
}

// Config holds configuration for the reconciliation sweep.
type Config struct {
	// StallThreshold is how long a processing job may go without a
	// liveness signal before its worker is presumed dead.
	StallThreshold time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{StallThreshold: 10 * time.Minute}
}

// Report summarizes one reconciliation sweep.
type Report struct {
	Scanned    int `json:"scanned"`
	Stalled    int `json:"stalled"`
	Reconciled int `json:"reconciled"`
	Healthy    int `json:"healthy"`
}

// Reconciler audits all processing jobs and repairs the ones whose worker
// disappeared: stale jobs are failed with a diagnostic, unless external
// ground truth proves the work finished, in which case they are marked done.
// It is invoked out-of-band and is safe to run concurrently with workers:
// every repair is a conditional update that loses gracefully to a worker
// that reports at the last moment.
type Reconciler struct {
	store   job.Store
	checker ArtifactChecker
	emitter events.Emitter
	config  Config
	logger  *slog.Logger
}

// New creates a Reconciler. The artifact checker is optional; without one,
// every stale job is failed. A nil emitter is replaced with a no-op sink.
func New(jobStore job.Store, checker ArtifactChecker, emitter events.Emitter, config Config, logger *slog.Logger) (*Reconciler, error) {
	if jobStore == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if config.StallThreshold <= 0 {
		config.StallThreshold = DefaultConfig().StallThreshold
	}

	return &Reconciler{
		store:   jobStore,
		checker: checker,
		emitter: emitter,
		config:  config,
		logger:  logger.With("component", "reconciler"),
	}, nil
}

// Run performs one sweep over all processing jobs.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var report Report

	jobs, err := r.store.ListProcessing(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list processing jobs: %w", err)
	}

	now := time.Now().UTC()
	cutoff := now.Add(-r.config.StallThreshold)

	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		staleness := now.Sub(j.LastActivity())
		logger := r.logger.With("job_id", j.ID, "job_type", j.Type)

		if staleness <= r.config.StallThreshold {
			report.Healthy++
			r.emit(ctx, j.ID, events.PhaseAudit, 0, "", map[string]any{
				"staleness_seconds": int(staleness.Seconds()),
			})
			continue
		}

		if r.completeFromArtifact(ctx, j, now, logger) {
			report.Reconciled++
			continue
		}

		errMsg := fmt.Sprintf(
			"stalled in processing: no liveness signal for %s (threshold %s)",
			staleness.Truncate(time.Second), r.config.StallThreshold,
		)
		updated, err := r.store.FailIfStale(ctx, j.ID, cutoff, errMsg, now)
		if err != nil {
			logger.Error("failed to fail stalled job", "error", err)
			continue
		}
		if !updated {
			// The worker reported in between our read and the update.
			logger.Info("job recovered before stall write, leaving untouched")
			report.Healthy++
			continue
		}

		report.Stalled++
		logger.Warn("failed stalled job", "staleness", staleness)
		r.emit(ctx, j.ID, events.PhaseStalled, 0, errMsg, map[string]any{
			"staleness_seconds": int(staleness.Seconds()),
		})
	}

	r.logger.Info("reconciliation sweep complete",
		"scanned", report.Scanned,
		"stalled", report.Stalled,
		"reconciled", report.Reconciled,
		"healthy", report.Healthy)

	return report, nil
}

// completeFromArtifact resolves the race where a worker produced its output
// but died before persisting the terminal status: if ground truth proves
// completion, mark the job done instead of failing it. Checker errors are
// logged and treated as "no proof".
func (r *Reconciler) completeFromArtifact(ctx context.Context, j *job.Job, now time.Time, logger *slog.Logger) bool {
	if r.checker == nil {
		return false
	}

	result, proven, err := r.checker.CheckArtifact(ctx, j)
	if err != nil {
		logger.Warn("artifact check failed, falling back to stall handling", "error", err)
		return false
	}
	if !proven {
		return false
	}

	updated, err := r.store.CompleteFromArtifact(ctx, j.ID, result, now)
	if err != nil {
		logger.Error("failed to complete job from artifact", "error", err)
		return false
	}
	if !updated {
		return false
	}

	logger.Info("completed stalled job from artifact ground truth")
	r.emit(ctx, j.ID, events.PhaseReconciled, 100, "completed from artifact", nil)
	return true
}

// emit publishes a progress event inside its own error boundary.
func (r *Reconciler) emit(ctx context.Context, id uuid.UUID, phase string, progress int, message string, meta map[string]any) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("progress emitter panicked", "panic", p, "phase", phase)
		}
	}()
	r.emitter.Emit(ctx, events.NewProgressEvent(id, phase, progress, message, meta))
}
