package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
)

// MaterialChecker proves a stalled job's completion from the materials it
// persisted. Materials are written before the terminal status transition, so
// a full set of them means the work finished even if the worker died before
// reporting.
type MaterialChecker struct {
	materials material.Store
}

// NewMaterialChecker creates a MaterialChecker.
func NewMaterialChecker(materials material.Store) (*MaterialChecker, error) {
	if materials == nil {
		return nil, errors.New("material store cannot be nil")
	}
	return &MaterialChecker{materials: materials}, nil
}

// CheckArtifact reports whether the job's materials prove its work finished,
// and if so returns the reconstructed result document. Jobs of unknown types
// and jobs whose payload cannot be interpreted are never proven; failing
// them is the safe default.
func (c *MaterialChecker) CheckArtifact(ctx context.Context, j *job.Job) (json.RawMessage, bool, error) {
	var required int
	switch j.Type {
	case TypeCourseOutline:
		required = 1
	case TypeLessonGeneration:
		var p lessonPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil || len(p.Sections) == 0 {
			return nil, false, nil
		}
		required = len(p.Sections)
	default:
		return nil, false, nil
	}

	count, err := c.materials.CountForJob(ctx, j.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count materials for job: %w", err)
	}
	if count < required {
		return nil, false, nil
	}

	result, err := json.Marshal(map[string]any{
		"recovered_from_artifacts": true,
		"material_count":           count,
	})
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}
