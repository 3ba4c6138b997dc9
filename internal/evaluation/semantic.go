package evaluation

import (
	"context"
	"fmt"
	"math"

	"github.com/banterlab/vetta/internal/gateway"
)

// SemanticScorer measures how on-topic an answer is by comparing its
// embedding to the embedding of the question-plus-topic context.
type SemanticScorer struct {
	embedder gateway.Embedder
}

// NewSemanticScorer wraps an embedding provider.
func NewSemanticScorer(embedder gateway.Embedder) *SemanticScorer {
	return &SemanticScorer{embedder: embedder}
}

// Score returns the cosine similarity in [0,1] between the answer and the
// question/topic context. Negative cosine values are floored at zero since
// the scale is a relevance measure, not a direction.
func (s *SemanticScorer) Score(ctx context.Context, question, topic, answer string) (float64, error) {
	contextVec, err := s.embedder.Embed(ctx, fmt.Sprintf("%s\n\nTopic: %s", question, topic))
	if err != nil {
		return 0, fmt.Errorf("embedding question context: %w", err)
	}
	answerVec, err := s.embedder.Embed(ctx, answer)
	if err != nil {
		return 0, fmt.Errorf("embedding answer: %w", err)
	}

	sim, err := cosineSimilarity(contextVec, answerVec)
	if err != nil {
		return 0, err
	}
	if sim < 0 {
		sim = 0
	}
	return sim, nil
}

func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
