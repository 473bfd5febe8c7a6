package material

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for material validation
var (
	// ErrInvalidKind is returned when the material kind is not recognized
	ErrInvalidKind = errors.New("invalid material kind")

	// ErrEmptyContent is returned when a material has no content
	ErrEmptyContent = errors.New("material content cannot be empty")

	// ErrInvalidJobID is returned when the owning job ID is missing
	ErrInvalidJobID = errors.New("job ID cannot be empty")

	// ErrInvalidOrganizationID is returned when the tenant is missing
	ErrInvalidOrganizationID = errors.New("organization ID cannot be empty")
)

// Kind identifies what sort of content artifact a material holds.
type Kind string

const (
	// KindLessonSection is one generated section of a lesson.
	KindLessonSection Kind = "lesson_section"
	// KindCourseOutline is a generated course outline.
	KindCourseOutline Kind = "course_outline"
)

// Material is a durable content artifact produced by a job. Materials are
// written before the job's terminal status, which makes them usable as
// ground truth when deciding whether an unresponsive job actually finished
// its work.
type Material struct {
	ID             uuid.UUID `json:"id"`
	JobID          uuid.UUID `json:"job_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Kind           Kind      `json:"kind"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
}

// New creates a Material with a generated ID and the current timestamp.
func New(jobID, organizationID uuid.UUID, kind Kind, title, content string, position int) (*Material, error) {
	m := &Material{
		ID:             uuid.New(),
		JobID:          jobID,
		OrganizationID: organizationID,
		Kind:           kind,
		Title:          title,
		Content:        content,
		Position:       position,
		CreatedAt:      time.Now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the material data meets domain requirements.
func (m *Material) Validate() error {
	if m.JobID == uuid.Nil {
		return ErrInvalidJobID
	}
	if m.OrganizationID == uuid.Nil {
		return ErrInvalidOrganizationID
	}
	switch m.Kind {
	case KindLessonSection, KindCourseOutline:
	default:
		return ErrInvalidKind
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// Store defines the persistence contract for materials.
type Store interface {
	// SaveMaterial persists a material.
	SaveMaterial(ctx context.Context, m *Material) error

	// CountForJob returns how many materials the given job has produced.
	CountForJob(ctx context.Context, jobID uuid.UUID) (int, error)

	// ListForJob returns the job's materials ordered by position.
	ListForJob(ctx context.Context, jobID uuid.UUID) ([]*Material, error)
}
