package executors

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/draftforge/draftforge-api/internal/material"
	"github.com/google/uuid"
)

// fakeGenerator returns canned content and records the prompts it saw.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	content string
	err     error
}

func (g *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if g.content != "" {
		return g.content, nil
	}
	return "generated content", nil
}

// memMaterialStore is an in-memory material.Store.
type memMaterialStore struct {
	mu        sync.Mutex
	materials []*material.Material
	saveErr   error
	countErr  error
}

func (s *memMaterialStore) SaveMaterial(_ context.Context, m *material.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *m
	s.materials = append(s.materials, &clone)
	return nil
}

func (s *memMaterialStore) CountForJob(_ context.Context, jobID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	count := 0
	for _, m := range s.materials {
		if m.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (s *memMaterialStore) ListForJob(_ context.Context, jobID uuid.UUID) ([]*material.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*material.Material
	for _, m := range s.materials {
		if m.JobID == jobID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
