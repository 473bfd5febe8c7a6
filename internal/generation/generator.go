package generation

import "context"

// Generator defines the interface for producing course content from a prompt.
// This interface serves as a boundary between the application core and
// external AI/LLM services; executors depend on it, never on a concrete
// client, so they stay testable with fakes.
type Generator interface {
	// GenerateContent produces content for the given prompt.
	// Returns the generated text or an error if generation fails
	// (see errors.go for the specific error types).
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
