package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftforge/draftforge-api/internal/generation"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
)

// TypeCourseOutline is the job type for single-shot course outline generation.
const TypeCourseOutline = "course_outline"

const defaultOutlineSections = 8

type outlinePayload struct {
	Topic        string `json:"topic"`
	Audience     string `json:"audience,omitempty"`
	SectionCount int    `json:"section_count,omitempty"`
}

type outlineResult struct {
	Topic      string `json:"topic"`
	MaterialID string `json:"material_id"`
	Outline    string `json:"outline"`
}

// CourseOutlineExecutor generates a course outline in a single invocation.
type CourseOutlineExecutor struct {
	generator generation.Generator
	materials material.Store
	logger    *slog.Logger
}

// NewCourseOutlineExecutor creates a CourseOutlineExecutor.
func NewCourseOutlineExecutor(generator generation.Generator, materials material.Store, logger *slog.Logger) (*CourseOutlineExecutor, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if materials == nil {
		return nil, errors.New("material store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &CourseOutlineExecutor{
		generator: generator,
		materials: materials,
		logger:    logger.With("executor", TypeCourseOutline),
	}, nil
}

// Execute generates the outline, persists it as a material, and completes.
func (e *CourseOutlineExecutor) Execute(ctx context.Context, ec job.ExecutionContext) (job.Outcome, error) {
	var p outlinePayload
	if err := json.Unmarshal(ec.Payload, &p); err != nil {
		return job.Outcome{}, fmt.Errorf("invalid outline payload: %w", err)
	}
	if p.Topic == "" {
		return job.Outcome{}, errors.New("outline payload missing topic")
	}
	if p.SectionCount <= 0 {
		p.SectionCount = defaultOutlineSections
	}

	e.logger.InfoContext(ctx, "generating course outline",
		"job_id", ec.JobID,
		"topic", p.Topic,
		"section_count", p.SectionCount)

	outline, err := e.generator.GenerateContent(ctx, outlinePrompt(p))
	if err != nil {
		return job.Outcome{}, fmt.Errorf("failed to generate outline: %w", err)
	}

	m, err := material.New(ec.JobID, ec.OrganizationID, material.KindCourseOutline, p.Topic, outline, 0)
	if err != nil {
		return job.Outcome{}, fmt.Errorf("failed to build outline material: %w", err)
	}
	if err := e.materials.SaveMaterial(ctx, m); err != nil {
		return job.Outcome{}, fmt.Errorf("failed to save outline material: %w", err)
	}

	result, err := json.Marshal(outlineResult{
		Topic:      p.Topic,
		MaterialID: m.ID.String(),
		Outline:    outline,
	})
	if err != nil {
		return job.Outcome{}, fmt.Errorf("failed to marshal outline result: %w", err)
	}
	return job.Done(result), nil
}

func outlinePrompt(p outlinePayload) string {
	prompt := fmt.Sprintf("Create a course outline with %d sections on the topic %q.", p.SectionCount, p.Topic)
	if p.Audience != "" {
		prompt += fmt.Sprintf(" The course is aimed at %s.", p.Audience)
	}
	prompt += " Return a numbered list of section titles, each with a one-sentence description."
	return prompt
}
