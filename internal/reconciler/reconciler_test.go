package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// processingJob builds a processing job whose last liveness signal is age old.
func processingJob(t *testing.T, jobType string, age time.Duration) *job.Job {
	t.Helper()

	j, err := job.New(jobType, uuid.New(), json.RawMessage(`{}`))
	require.NoError(t, err)

	past := time.Now().UTC().Add(-age)
	j.Status = job.StatusProcessing
	j.CreatedAt = past.Add(-time.Minute)
	j.StartedAt = &past
	j.LastHeartbeat = &past
	return j
}

// staticChecker is an ArtifactChecker with canned answers.
type staticChecker struct {
	result json.RawMessage
	proven bool
	err    error
}

func (c staticChecker) CheckArtifact(context.Context, *job.Job) (json.RawMessage, bool, error) {
	return c.result, c.proven, c.err
}

func newTestReconciler(t *testing.T, s job.Store, checker ArtifactChecker, emitter events.Emitter, threshold time.Duration) *Reconciler {
	t.Helper()
	r, err := New(s, checker, emitter, Config{StallThreshold: threshold}, testLogger())
	require.NoError(t, err)
	return r
}

func TestReconcilerFailsStalledJob(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	stale := processingJob(t, "lesson_generation", 30*time.Minute)
	s.add(stale)

	emitter := events.NewMemoryEmitter()
	r := newTestReconciler(t, s, nil, emitter, 10*time.Minute)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Stalled: 1}, report)

	final := s.get(stale.ID)
	assert.Equal(t, job.StatusFailed, final.Status)
	assert.Contains(t, final.Error, "stalled in processing")
	require.NotNil(t, final.CompletedAt)

	stalled := emitter.ByPhase(events.PhaseStalled)
	require.Len(t, stalled, 1)
	assert.Equal(t, stale.ID, stalled[0].JobID)
}

func TestReconcilerLeavesHealthyJobUntouched(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	fresh := processingJob(t, "lesson_generation", 1*time.Minute)
	s.add(fresh)

	emitter := events.NewMemoryEmitter()
	r := newTestReconciler(t, s, nil, emitter, 10*time.Minute)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Healthy: 1}, report)

	assert.Equal(t, job.StatusProcessing, s.get(fresh.ID).Status)
	assert.Len(t, emitter.ByPhase(events.PhaseAudit), 1)
}

func TestReconcilerCompletesStalledJobFromArtifact(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	stale := processingJob(t, "course_outline", 30*time.Minute)
	s.add(stale)

	checker := staticChecker{result: json.RawMessage(`{"reconciled":true}`), proven: true}
	emitter := events.NewMemoryEmitter()
	r := newTestReconciler(t, s, checker, emitter, 10*time.Minute)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Reconciled: 1}, report)

	final := s.get(stale.ID)
	assert.Equal(t, job.StatusDone, final.Status)
	assert.JSONEq(t, `{"reconciled":true}`, string(final.Result))
	assert.Empty(t, final.Error)

	assert.Len(t, emitter.ByPhase(events.PhaseReconciled), 1)
	assert.Empty(t, emitter.ByPhase(events.PhaseStalled))
}

func TestReconcilerArtifactCheckerErrorFallsBackToStall(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	stale := processingJob(t, "course_outline", 30*time.Minute)
	s.add(stale)

	checker := staticChecker{err: errors.New("storage unreachable")}
	r := newTestReconciler(t, s, checker, events.NopEmitter{}, 10*time.Minute)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Stalled: 1}, report)
	assert.Equal(t, job.StatusFailed, s.get(stale.ID).Status)
}

func TestReconcilerUnprovenArtifactStalls(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	stale := processingJob(t, "lesson_generation", 30*time.Minute)
	s.add(stale)

	checker := staticChecker{proven: false}
	r := newTestReconciler(t, s, checker, events.NopEmitter{}, 10*time.Minute)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Stalled: 1}, report)
}

func TestReconcilerLosesRaceToLastMomentHeartbeat(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	stale := processingJob(t, "lesson_generation", 30*time.Minute)
	s.add(stale)

	// The worker heartbeats between the reconciler's read and its
	// conditional update; the guarded write must not fire.
	require.NoError(t, s.Heartbeat(context.Background(), stale.ID, time.Now().UTC()))

	r := newTestReconciler(t, s, nil, events.NopEmitter{}, 10*time.Minute)

	// Force the sweep to still see the job as stale by rebuilding its view
	// from the store: ListProcessing returns the live row, so this models
	// a heartbeat landing after LastActivity was computed only when the
	// conditional update itself carries the guard. FailIfStale rechecks
	// liveness against the cutoff and must refuse.
	ok, err := s.FailIfStale(context.Background(), stale.ID, time.Now().UTC().Add(-10*time.Minute), "stall", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 1, Healthy: 1}, report)
	assert.Equal(t, job.StatusProcessing, s.get(stale.ID).Status)
}

func TestReconcilerMixedSweep(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	stale := processingJob(t, "lesson_generation", 45*time.Minute)
	fresh := processingJob(t, "lesson_generation", 2*time.Minute)
	done := processingJob(t, "course_outline", time.Hour)
	done.Status = job.StatusDone
	s.add(stale)
	s.add(fresh)
	s.add(done)

	r := newTestReconciler(t, s, nil, events.NopEmitter{}, 10*time.Minute)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	// Terminal rows are not scanned at all.
	assert.Equal(t, Report{Scanned: 2, Stalled: 1, Healthy: 1}, report)
	assert.Equal(t, job.StatusFailed, s.get(stale.ID).Status)
	assert.Equal(t, job.StatusProcessing, s.get(fresh.ID).Status)
	assert.Equal(t, job.StatusDone, s.get(done.ID).Status)
}

func TestReconcilerListErrorPropagates(t *testing.T) {
	t.Parallel()

	s := newMockJobStore()
	s.ListErr = errors.New("connection refused")

	r := newTestReconciler(t, s, nil, events.NopEmitter{}, 10*time.Minute)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list processing jobs")
}
