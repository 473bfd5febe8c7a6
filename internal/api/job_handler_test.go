package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
	"github.com/draftforge/draftforge-api/internal/service"
	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJobStore is an in-memory job.Store with working (non-concurrent) claim
// and transition semantics, enough for the handler tests to drive full runs.
type stubJobStore struct {
	jobs map[uuid.UUID]*job.Job
}

func newStubJobStore() *stubJobStore {
	return &stubJobStore{jobs: make(map[uuid.UUID]*job.Job)}
}

func (s *stubJobStore) Enqueue(_ context.Context, j *job.Job) error {
	s.jobs[j.ID] = j
	return nil
}

func (s *stubJobStore) GetJob(_ context.Context, id uuid.UUID) (*job.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return j, nil
}

func (s *stubJobStore) Claim(_ context.Context, now time.Time, types []string) (*job.Job, error) {
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
	return oldest, nil
}

func (s *stubJobStore) MarkDone(_ context.Context, id uuid.UUID, result json.RawMessage, now time.Time) error {
	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return store.ErrStatusConflict
	}
	completed := now
	j.Status = job.StatusDone
	j.Result = result
	j.CompletedAt = &completed
	return nil
}

func (s *stubJobStore) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, nextAttemptAt *time.Time, now time.Time) error {
	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return store.ErrStatusConflict
	}
	completed := now
	j.Status = job.StatusFailed
	j.Error = errMsg
	j.CompletedAt = &completed
	j.NextAttemptAt = nextAttemptAt
	j.RetryCount++
	return nil
}

func (s *stubJobStore) Requeue(_ context.Context, id uuid.UUID, payload json.RawMessage, now time.Time) error {
	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return store.ErrStatusConflict
	}
	j.Status = job.StatusQueued
	j.Payload = payload
	j.CreatedAt = now
	j.StartedAt = nil
	j.LastHeartbeat = nil
	j.NextAttemptAt = nil
	return nil
}

func (s *stubJobStore) Heartbeat(_ context.Context, id uuid.UUID, now time.Time) error {
	if j, ok := s.jobs[id]; ok && j.Status == job.StatusProcessing {
		hb := now
		j.LastHeartbeat = &hb
	}
	return nil
}

func (s *stubJobStore) ListProcessing(_ context.Context) ([]*job.Job, error) {
	var out []*job.Job
	for _, j := range s.jobs {
		if j.Status == job.StatusProcessing {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *stubJobStore) FailIfStale(_ context.Context, id uuid.UUID, cutoff time.Time, errMsg string, now time.Time) (bool, error) {
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

func (s *stubJobStore) CompleteFromArtifact(_ context.Context, id uuid.UUID, result json.RawMessage, now time.Time) (bool, error) {
	j, ok := s.jobs[id]
	if !ok || j.Status != job.StatusProcessing {
		return false, nil
	}
	completed := now
	j.Status = job.StatusDone
	j.Result = result
	j.CompletedAt = &completed
	return true, nil
}

// stubMaterialStore is an in-memory material.Store.
type stubMaterialStore struct {
	materials map[uuid.UUID][]*material.Material
}

func newStubMaterialStore() *stubMaterialStore {
	return &stubMaterialStore{materials: make(map[uuid.UUID][]*material.Material)}
}

func (s *stubMaterialStore) SaveMaterial(_ context.Context, m *material.Material) error {
	s.materials[m.JobID] = append(s.materials[m.JobID], m)
	return nil
}

func (s *stubMaterialStore) CountForJob(_ context.Context, jobID uuid.UUID) (int, error) {
	return len(s.materials[jobID]), nil
}

func (s *stubMaterialStore) ListForJob(_ context.Context, jobID uuid.UUID) ([]*material.Material, error) {
	return s.materials[jobID], nil
}

type testEnv struct {
	router    *chi.Mux
	jobs      *stubJobStore
	materials *stubMaterialStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	jobs := newStubJobStore()
	materials := newStubMaterialStore()
	registry := job.NewRegistry()
	require.NoError(t, registry.Register("lesson_generation",
		job.ExecutorFunc(func(_ context.Context, _ job.ExecutionContext) (job.Outcome, error) {
			return job.Done(nil), nil
		})))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.NewJobService(jobs, materials, registry, 0, logger)
	require.NoError(t, err)

	handler := NewJobHandler(svc)
	router := chi.NewRouter()
	router.Post("/api/jobs", handler.CreateJob)
	router.Get("/api/jobs/{id}", handler.GetJob)
	router.Get("/api/jobs/{id}/materials", handler.GetJobMaterials)

	return &testEnv{router: router, jobs: jobs, materials: materials}
}

func TestJobHandler_CreateJob(t *testing.T) {
	t.Parallel()

	t.Run("creates and returns 202", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		body := `{"type":"lesson_generation","organization_id":"` + uuid.NewString() + `","payload":{"topic":"T","sections":["A"]}}`

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
		env.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var resp JobResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "queued", resp.Status)
		assert.Equal(t, "lesson_generation", resp.Type)
		assert.Len(t, env.jobs.jobs, 1)
	})

	t.Run("unknown type returns 400", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		body := `{"type":"no_such_type","organization_id":"` + uuid.NewString() + `"}`

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
		env.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Unknown job type")
		assert.Empty(t, env.jobs.jobs)
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"type":"lesson_generation"}`))
		env.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{broken`))
		env.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJobHandler_GetJob(t *testing.T) {
	t.Parallel()

	t.Run("returns the status projection", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		j, err := job.New("lesson_generation", uuid.New(), json.RawMessage(`{"topic":"T"}`))
		require.NoError(t, err)
		require.NoError(t, env.jobs.Enqueue(context.Background(), j))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+j.ID.String(), nil)
		env.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var resp JobResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, j.ID.String(), resp.ID)
		assert.Equal(t, "queued", resp.Status)

		// Internal claim state must not leak.
		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.NotContains(t, raw, "last_heartbeat")
		assert.NotContains(t, raw, "next_attempt_at")
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+uuid.NewString(), nil)
		env.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Job not found")
	})

	t.Run("invalid id returns 400", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-uuid", nil)
		env.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJobHandler_GetJobMaterials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	j, err := job.New("lesson_generation", uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, env.jobs.Enqueue(context.Background(), j))

	m, err := material.New(j.ID, j.OrganizationID, material.KindLessonSection, "Intro", "content", 0)
	require.NoError(t, err)
	require.NoError(t, env.materials.SaveMaterial(context.Background(), m))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+j.ID.String()+"/materials", nil)
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []MaterialResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Intro", resp[0].Title)
	assert.Equal(t, string(material.KindLessonSection), resp[0].Kind)
}
