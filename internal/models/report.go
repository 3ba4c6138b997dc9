package models

import (
	"time"

	"github.com/banterlab/vetta/internal/statistics"
)

// FinalReport aggregates a completed session into a summary the caller can
// retrieve after the last answer has been evaluated.
type FinalReport struct {
	SessionID     string    `json:"session_id"`
	CandidateName string    `json:"candidate_name"`
	Topic         string    `json:"topic"`
	TargetRole    string    `json:"target_role,omitempty"`
	QuestionCount int       `json:"question_count"`
	OverallScore  float64   `json:"overall_score"`
	FinalTier     Tier      `json:"final_tier"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationMs    int64     `json:"duration_ms"`

	// DimensionAverages holds the mean score per rubric dimension across
	// all answered questions.
	DimensionAverages map[string]float64 `json:"dimension_averages"`

	// ScoreConfidence is a bootstrap confidence interval over the
	// per-question blended scores.
	ScoreConfidence *statistics.ConfidenceInterval `json:"score_confidence,omitempty"`

	Strengths []string `json:"strengths,omitempty"`
	Gaps      []string `json:"gaps,omitempty"`
}

// Clone returns a deep copy of the report.
func (r *FinalReport) Clone() *FinalReport {
	if r == nil {
		return nil
	}
	dup := *r
	dup.DimensionAverages = make(map[string]float64, len(r.DimensionAverages))
	for k, v := range r.DimensionAverages {
		dup.DimensionAverages[k] = v
	}
	dup.Strengths = append([]string(nil), r.Strengths...)
	dup.Gaps = append([]string(nil), r.Gaps...)
	if r.ScoreConfidence != nil {
		ci := *r.ScoreConfidence
		dup.ScoreConfidence = &ci
	}
	return &dup
}
