package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/google/uuid"
)

// mockJobStore is an in-memory job.Store for tests. Transitions go through a
// mutex-guarded compare-and-swap, so concurrent claim attempts behave like
// the conditional updates of the real Postgres store.
type mockJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*job.Job

	// ClaimErr, when set, is returned by Claim to simulate store failures.
	ClaimErr error

	// HeartbeatErr, when set, is returned by Heartbeat.
	HeartbeatErr error

	heartbeats int
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[uuid.UUID]*job.Job)}
}

func (s *mockJobStore) Enqueue(_ context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[j.ID]; exists {
		return store.ErrDuplicate
	}
	s.jobs[j.ID] = cloneJob(j)
	return nil
}

func (s *mockJobStore) GetJob(_ context.Context, id uuid.UUID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return cloneJob(j), nil
}

func (s *mockJobStore) Claim(_ context.Context, now time.Time, types []string) (*job.Job, error) {
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	var oldest *job.Job
	for _, j := range s.jobs {
		if j.Status != job.StatusQueued || !typeSet[j.Type] {
			continue
		}
		if j.NextAttemptAt != nil && j.NextAttemptAt.After(now) {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}

	if oldest == nil {
		return nil, store.ErrNoJobAvailable
	}

	started := now
	oldest.Status = job.StatusProcessing
	oldest.StartedAt = &started
	oldest.LastHeartbeat = &started
	return cloneJob(oldest), nil
}

func (s *mockJobStore) MarkDone(_ context.Context, id uuid.UUID, result json.RawMessage, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return store.ErrStatusConflict
	}

	completed := now
	j.Status = job.StatusDone
	j.Result = append(json.RawMessage(nil), result...)
	j.CompletedAt = &completed
	return nil
}

func (s *mockJobStore) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, nextAttemptAt *time.Time, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return store.ErrStatusConflict
	}

	completed := now
	j.Status = job.StatusFailed
	j.Error = errMsg
	j.CompletedAt = &completed
	j.NextAttemptAt = copyTime(nextAttemptAt)
	j.RetryCount++
	return nil
}

func (s *mockJobStore) Requeue(_ context.Context, id uuid.UUID, payload json.RawMessage, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return store.ErrStatusConflict
	}

	j.Status = job.StatusQueued
	j.Payload = append(json.RawMessage(nil), payload...)
	j.CreatedAt = now
	j.StartedAt = nil
	j.LastHeartbeat = nil
	j.NextAttemptAt = nil
	return nil
}

func (s *mockJobStore) Heartbeat(_ context.Context, id uuid.UUID, now time.Time) error {
	if s.HeartbeatErr != nil {
		return s.HeartbeatErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return nil
	}
	hb := now
	j.LastHeartbeat = &hb
	s.heartbeats++
	return nil
}

func (s *mockJobStore) ListProcessing(_ context.Context) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*job.Job
	for _, j := range s.jobs {
		if j.Status == job.StatusProcessing {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

func (s *mockJobStore) FailIfStale(_ context.Context, id uuid.UUID, cutoff time.Time, errMsg string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing || !j.LastActivity().Before(cutoff) {
		return false, nil
	}

	completed := now
	j.Status = job.StatusFailed
	j.Error = errMsg
	j.CompletedAt = &completed
	j.RetryCount++
	return true, nil
}

func (s *mockJobStore) CompleteFromArtifact(_ context.Context, id uuid.UUID, result json.RawMessage, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return false, nil
	}

	completed := now
	j.Status = job.StatusDone
	j.Result = append(json.RawMessage(nil), result...)
	j.CompletedAt = &completed
	return true, nil
}

// heartbeatCount reports how many heartbeat writes landed.
func (s *mockJobStore) heartbeatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeats
}

func cloneJob(j *job.Job) *job.Job {
	c := *j
	c.Payload = append(json.RawMessage(nil), j.Payload...)
	c.Result = append(json.RawMessage(nil), j.Result...)
	c.StartedAt = copyTime(j.StartedAt)
	c.CompletedAt = copyTime(j.CompletedAt)
	c.LastHeartbeat = copyTime(j.LastHeartbeat)
	c.NextAttemptAt = copyTime(j.NextAttemptAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
