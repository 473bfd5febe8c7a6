package executors

import (
	"fmt"
	"log/slog"

	"github.com/draftforge/draftforge-api/internal/generation"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
)

// RegisterAll registers every content generation executor with the registry.
func RegisterAll(registry *job.Registry, generator generation.Generator, materials material.Store, logger *slog.Logger) error {
	lesson, err := NewLessonGenerationExecutor(generator, materials, logger)
	if err != nil {
		return fmt.Errorf("failed to create lesson generation executor: %w", err)
	}
	if err := registry.Register(TypeLessonGeneration, lesson); err != nil {
		return fmt.Errorf("failed to register %s: %w", TypeLessonGeneration, err)
	}

	outline, err := NewCourseOutlineExecutor(generator, materials, logger)
	if err != nil {
		return fmt.Errorf("failed to create course outline executor: %w", err)
	}
	if err := registry.Register(TypeCourseOutline, outline); err != nil {
		return fmt.Errorf("failed to register %s: %w", TypeCourseOutline, err)
	}

	return nil
}
