package events

import (
	"context"
	"log/slog"
	"sync"
)

// Emitter publishes progress events. Implementations must be strictly
// fire-and-forget: Emit has no error return on purpose, so a failing or slow
// sink can never affect a state transition in the orchestrator.
type Emitter interface {
	Emit(ctx context.Context, event ProgressEvent)
}

// LogEmitter writes progress events to the structured log. It is the default
// sink in production.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter on the given logger.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{
		logger: logger.With("component", "progress_emitter"),
	}
}

// Emit logs the event at info level.
func (e *LogEmitter) Emit(ctx context.Context, event ProgressEvent) {
	e.logger.InfoContext(ctx, "job progress",
		"job_id", event.JobID,
		"phase", event.Phase,
		"progress", event.Progress,
		"message", event.Message,
		"meta", event.Meta)
}

// MemoryEmitter records events in memory. It exists for tests and local
// debugging.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []ProgressEvent
}

// NewMemoryEmitter creates an empty MemoryEmitter.
func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

// Emit appends the event to the in-memory record.
func (e *MemoryEmitter) Emit(_ context.Context, event ProgressEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

// Events returns a copy of everything emitted so far.
func (e *MemoryEmitter) Events() []ProgressEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ProgressEvent, len(e.events))
	copy(out, e.events)
	return out
}

// ByPhase returns the recorded events with the given phase.
func (e *MemoryEmitter) ByPhase(phase string) []ProgressEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []ProgressEvent
	for _, ev := range e.events {
		if ev.Phase == phase {
			out = append(out, ev)
		}
	}
	return out
}

// NopEmitter discards all events.
type NopEmitter struct{}

// Emit does nothing.
func (NopEmitter) Emit(context.Context, ProgressEvent) {}
