package reconciler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/google/uuid"
)

// mockJobStore is an in-memory job.Store for reconciler tests, with the same
// conditional-update semantics as the real Postgres store.
type mockJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*job.Job

	// ListErr, when set, is returned by ListProcessing.
	ListErr error
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[uuid.UUID]*job.Job)}
}

func (s *mockJobStore) add(j *job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *mockJobStore) get(id uuid.UUID) *job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *mockJobStore) Enqueue(_ context.Context, j *job.Job) error {
	s.add(j)
	return nil
}

func (s *mockJobStore) GetJob(_ context.Context, id uuid.UUID) (*job.Job, error) {
	if j := s.get(id); j != nil {
		return j, nil
	}
	return nil, store.ErrJobNotFound
}

func (s *mockJobStore) Claim(context.Context, time.Time, []string) (*job.Job, error) {
	return nil, store.ErrNoJobAvailable
}

func (s *mockJobStore) MarkDone(context.Context, uuid.UUID, json.RawMessage, time.Time) error {
	return store.ErrStatusConflict
}

func (s *mockJobStore) MarkFailed(context.Context, uuid.UUID, string, *time.Time, time.Time) error {
	return store.ErrStatusConflict
}

func (s *mockJobStore) Requeue(context.Context, uuid.UUID, json.RawMessage, time.Time) error {
	return store.ErrStatusConflict
}

func (s *mockJobStore) Heartbeat(_ context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok && j.Status == job.StatusProcessing {
		hb := now
		j.LastHeartbeat = &hb
	}
	return nil
}

func (s *mockJobStore) ListProcessing(context.Context) ([]*job.Job, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*job.Job
	for _, j := range s.jobs {
		if j.Status == job.StatusProcessing {
			out = append(out, j)
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
