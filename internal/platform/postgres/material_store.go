package postgres

import (
	"context"
	"fmt"

	"github.com/draftforge/draftforge-api/internal/material"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/store"
	"github.com/google/uuid"
)

// PostgresMaterialStore implements the material.Store interface using
// PostgreSQL.
type PostgresMaterialStore struct {
	db store.DBTX
}

// NewPostgresMaterialStore creates a new PostgresMaterialStore.
func NewPostgresMaterialStore(db store.DBTX) *PostgresMaterialStore {
	return &PostgresMaterialStore{
		db: db,
	}
}

// SaveMaterial persists a material.
func (s *PostgresMaterialStore) SaveMaterial(ctx context.Context, m *material.Material) error {
	log := logger.FromContext(ctx)

	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO materials (id, job_id, organization_id, kind, title, content, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.JobID,
		m.OrganizationID,
		m.Kind,
		m.Title,
		m.Content,
		m.Position,
		m.CreatedAt,
	)
	if err != nil {
		log.Error("failed to save material",
			"material_id", m.ID,
			"job_id", m.JobID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// CountForJob returns how many materials the given job has produced.
func (s *PostgresMaterialStore) CountForJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM materials WHERE job_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, jobID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count materials: %w", MapError(err))
	}
	return count, nil
}

// ListForJob returns the job's materials ordered by position.
func (s *PostgresMaterialStore) ListForJob(ctx context.Context, jobID uuid.UUID) ([]*material.Material, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, job_id, organization_id, kind, title, content, position, created_at
		FROM materials
		WHERE job_id = $1
		ORDER BY position ASC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		log.Error("failed to list materials", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("failed to list materials: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var materials []*material.Material
	for rows.Next() {
		var m material.Material
		if err := rows.Scan(
			&m.ID,
			&m.JobID,
			&m.OrganizationID,
			&m.Kind,
			&m.Title,
			&m.Content,
			&m.Position,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan material row: %w", err)
		}
		materials = append(materials, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating material rows: %w", err)
	}

	return materials, nil
}

// Compile-time check that PostgresMaterialStore satisfies material.Store.
var _ material.Store = (*PostgresMaterialStore)(nil)
