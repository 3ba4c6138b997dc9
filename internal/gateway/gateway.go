// Package gateway abstracts the language model behind two capability calls,
// free-text generation and schema-constrained structured generation, plus an
// embedding provider for semantic scoring. Retries and timeouts live here so
// callers never see transient upstream noise.
package gateway

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Generator is the "ask the model" capability consumed by the state machine
// and the evaluation engine.
type Generator interface {
	// Generate returns free-form text for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStructured asks for a JSON response and validates it
	// against schema before returning the decoded document.
	GenerateStructured(ctx context.Context, prompt string, schema *jsonschema.Schema) (map[string]any, error)
}

// Embedder produces embedding vectors for semantic similarity scoring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// GenerationError wraps upstream model failures after retry exhaustion.
// Callers degrade to fallback behavior rather than failing the turn.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
