package models

// Dimension names used by the rubric scorer. DimensionCodeQuality is only
// requested for engineering topics.
const (
	DimensionTechnicalAccuracy = "technical_accuracy"
	DimensionCommunication     = "communication"
	DimensionProblemSolving    = "problem_solving"
	DimensionCodeQuality       = "code_quality"
)

// EvaluationResult is the outcome of scoring a single answer. It is created
// once per answer and never mutated after being appended to the session
// history.
type EvaluationResult struct {
	// HeuristicScore is the deterministic structural score in [0,10].
	HeuristicScore float64 `json:"heuristic_score"`

	// SemanticScore is the answer/question embedding similarity in [0,1].
	// It is only meaningful when SemanticAvailable is true.
	SemanticScore     float64 `json:"semantic_score"`
	SemanticAvailable bool    `json:"semantic_available"`

	// ModelScore is the rubric score in [0,10], nil when the model call
	// failed and scoring degraded to heuristic-only.
	ModelScore *float64 `json:"model_score,omitempty"`

	// BlendedScore is the final score in [0,10]. Off-topic answers are
	// capped at the off-topic ceiling regardless of the other signals.
	BlendedScore float64 `json:"blended_score"`

	DimensionScores map[string]float64 `json:"dimension_scores"`
	Feedback        string             `json:"feedback"`
	CritiqueApplied bool               `json:"critique_applied"`

	// Degraded marks results produced without the model signal.
	Degraded bool `json:"degraded,omitempty"`
}

// Clone returns a deep copy of the result.
func (r *EvaluationResult) Clone() *EvaluationResult {
	if r == nil {
		return nil
	}
	dup := *r
	if r.ModelScore != nil {
		v := *r.ModelScore
		dup.ModelScore = &v
	}
	dup.DimensionScores = make(map[string]float64, len(r.DimensionScores))
	for k, v := range r.DimensionScores {
		dup.DimensionScores[k] = v
	}
	return &dup
}
