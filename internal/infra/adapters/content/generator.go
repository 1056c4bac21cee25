package content

import "context"

// Generator is a text completion backend.
type Generator interface {
	Name() string
	Model() string
	// Generate returns the completion text and the number of completion tokens
	// the backend reported (0 when unknown).
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, int, error)
}
