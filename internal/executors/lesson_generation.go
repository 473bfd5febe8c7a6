package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/draftforge/draftforge-api/internal/generation"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
)

// TypeLessonGeneration is the job type for multi-section lesson generation.
const TypeLessonGeneration = "lesson_generation"

// lessonPayload is the resumption state for a lesson generation job. The
// payload is the job's only memory between invocations: NextSection is the
// cursor into Sections, and MaterialIDs accumulates what has been persisted
// so far.
type lessonPayload struct {
	Topic       string   `json:"topic"`
	Sections    []string `json:"sections"`
	NextSection int      `json:"next_section"`
	MaterialIDs []string `json:"material_ids,omitempty"`
}

// lessonResult is the terminal result document for a finished lesson.
type lessonResult struct {
	Topic       string   `json:"topic"`
	Sections    []string `json:"sections"`
	MaterialIDs []string `json:"material_ids"`
}

// LessonGenerationExecutor generates lesson content one section per
// invocation, persisting each section as a material and yielding until all
// sections are done. Splitting the work this way keeps each invocation short
// relative to the heartbeat interval and lets other jobs interleave.
type LessonGenerationExecutor struct {
	generator generation.Generator
	materials material.Store
	logger    *slog.Logger
}

// NewLessonGenerationExecutor creates a LessonGenerationExecutor.
func NewLessonGenerationExecutor(generator generation.Generator, materials material.Store, logger *slog.Logger) (*LessonGenerationExecutor, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if materials == nil {
		return nil, errors.New("material store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &LessonGenerationExecutor{
		generator: generator,
		materials: materials,
		logger:    logger.With("executor", TypeLessonGeneration),
	}, nil
}

// Execute runs one step of the lesson: generate the section at the cursor,
// persist it, and yield with the cursor advanced. Once the cursor passes the
// last section the job completes with the accumulated material IDs.
func (e *LessonGenerationExecutor) Execute(ctx context.Context, ec job.ExecutionContext) (job.Outcome, error) {
	var p lessonPayload
	if err := json.Unmarshal(ec.Payload, &p); err != nil {
		return job.Outcome{}, fmt.Errorf("invalid lesson payload: %w", err)
	}
	if p.Topic == "" {
		return job.Outcome{}, errors.New("lesson payload missing topic")
	}
	if len(p.Sections) == 0 {
		return job.Outcome{}, errors.New("lesson payload has no sections")
	}
	if p.NextSection < 0 {
		return job.Outcome{}, fmt.Errorf("lesson payload has negative section cursor %d", p.NextSection)
	}

	if p.NextSection >= len(p.Sections) {
		result, err := json.Marshal(lessonResult{
			Topic:       p.Topic,
			Sections:    p.Sections,
			MaterialIDs: p.MaterialIDs,
		})
		if err != nil {
			return job.Outcome{}, fmt.Errorf("failed to marshal lesson result: %w", err)
		}
		return job.Done(result), nil
	}

	section := p.Sections[p.NextSection]
	e.logger.InfoContext(ctx, "generating lesson section",
		"job_id", ec.JobID,
		"section", section,
		"position", p.NextSection,
		"total", len(p.Sections))

	content, err := e.generator.GenerateContent(ctx, sectionPrompt(p.Topic, p.Sections, p.NextSection))
	if err != nil {
		return job.Outcome{}, fmt.Errorf("failed to generate section %q: %w", section, err)
	}

	m, err := material.New(ec.JobID, ec.OrganizationID, material.KindLessonSection, section, content, p.NextSection)
	if err != nil {
		return job.Outcome{}, fmt.Errorf("failed to build section material: %w", err)
	}
	if err := e.materials.SaveMaterial(ctx, m); err != nil {
		return job.Outcome{}, fmt.Errorf("failed to save section material: %w", err)
	}

	patch := map[string]any{
		"next_section": p.NextSection + 1,
		"material_ids": append(p.MaterialIDs, m.ID.String()),
	}
	message := fmt.Sprintf("generated section %d of %d", p.NextSection+1, len(p.Sections))
	return job.Suspend(message, patch), nil
}

// sectionPrompt builds the generation prompt for one section, giving the
// model the full outline for context.
func sectionPrompt(topic string, sections []string, idx int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the lesson content for the section %q of a lesson on %q.\n\n", sections[idx], topic)
	b.WriteString("The full lesson outline is:\n")
	for i, s := range sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nWrite only the content for the requested section, in clear instructional prose.")
	return b.String()
}
