package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// MockGenerator is a scripted Generator for tests and offline runs. Each call
// pops the next queued response; when the queue is empty it falls back to a
// deterministic canned reply.
type MockGenerator struct {
	mu sync.Mutex

	// Responses are consumed in order by Generate.
	Responses []string
	// StructuredResponses are consumed in order by GenerateStructured.
	StructuredResponses []map[string]any

	// Err, when set, is returned by every call.
	Err error

	GenerateCalls   int
	StructuredCalls int
}

// NewMockGenerator creates an empty mock.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls++
	if m.Err != nil {
		return "", &GenerationError{Op: "generate", Err: m.Err}
	}
	if len(m.Responses) > 0 {
		next := m.Responses[0]
		m.Responses = m.Responses[1:]
		return next, nil
	}
	return fmt.Sprintf("Mock response %d for: %s", m.GenerateCalls, firstLine(prompt)), nil
}

func (m *MockGenerator) GenerateStructured(ctx context.Context, prompt string, schema *jsonschema.Schema) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StructuredCalls++
	if m.Err != nil {
		return nil, &GenerationError{Op: "generate_structured", Err: m.Err}
	}
	if len(m.StructuredResponses) > 0 {
		next := m.StructuredResponses[0]
		m.StructuredResponses = m.StructuredResponses[1:]
		if schema != nil {
			// Round-trip through JSON so numbers validate as JSON numbers.
			raw, err := json.Marshal(next)
			if err != nil {
				return nil, err
			}
			var doc any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, err
			}
			if err := schema.Validate(doc); err != nil {
				return nil, &GenerationError{Op: "generate_structured", Err: err}
			}
			return doc.(map[string]any), nil
		}
		return next, nil
	}
	return nil, &GenerationError{Op: "generate_structured", Err: fmt.Errorf("mock has no structured responses queued")}
}

// MockEmbedder produces deterministic pseudo-embeddings derived from token
// hashes, so similar texts (shared words) get similar vectors. Good enough to
// exercise cosine scoring without a real provider.
type MockEmbedder struct {
	// Err, when set, is returned by every call.
	Err error
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.Err != nil {
		return nil, &GenerationError{Op: "embed", Err: m.Err}
	}

	const dims = 64
	vec := make([]float64, dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(word))
		for i := 0; i < dims; i++ {
			vec[i] += float64(int(sum[i%len(sum)])-128) / 128
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
