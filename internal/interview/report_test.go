package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banterlab/vetta/internal/models"
	"github.com/banterlab/vetta/internal/utils"
)

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What is a B-tree?", "what is a b tree"},
		{"  WHAT   IS a b-tree!! ", "what is a b tree"},
		{"", ""},
		{"one", "one"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeQuestion(tt.in), "input %q", tt.in)
	}
}

func TestIsDuplicate(t *testing.T) {
	asked := []string{"What is a hash table?"}
	assert.True(t, isDuplicate("what is a HASH table", asked))
	assert.True(t, isDuplicate("   ", asked), "blank questions count as duplicates")
	assert.False(t, isDuplicate("What is a trie?", asked))
}

func TestFallbackQuestionRotatesWithoutRepeats(t *testing.T) {
	var asked []string
	for n := 0; n < len(fallbackPool[models.TierMedium]); n++ {
		q := fallbackQuestion("databases", models.TierMedium, n, asked)
		assert.False(t, isDuplicate(q, asked), "fallback repeated at n=%d", n)
		asked = append(asked, q)
	}
}

func TestFallbackQuestionSkipsAskedSlot(t *testing.T) {
	first := fallbackQuestion("databases", models.TierHard, 0, nil)
	second := fallbackQuestion("databases", models.TierHard, 0, []string{first})
	assert.NotEqual(t, normalizeQuestion(first), normalizeQuestion(second))
}

func TestFallbackQuestionUnknownTier(t *testing.T) {
	q := fallbackQuestion("databases", models.Tier("weird"), 0, nil)
	assert.NotEmpty(t, q)
}

func TestBuildReport(t *testing.T) {
	created := time.Now().Add(-10 * time.Minute)
	eval := func(tech, comm float64) *models.EvaluationResult {
		return &models.EvaluationResult{
			ModelScore: utils.Ptr((tech + comm) / 2),
			DimensionScores: map[string]float64{
				models.DimensionTechnicalAccuracy: tech,
				models.DimensionCommunication:     comm,
			},
		}
	}
	sess := &models.InterviewSession{
		ID:            "s1",
		CandidateName: "Ana",
		Topic:         "algorithms",
		CurrentTier:   models.TierHard,
		CreatedAt:     created,
		QAHistory: []models.QARecord{
			{Question: "q1", Evaluation: eval(8, 4)},
			{Question: "q2", Evaluation: eval(9, 3)},
		},
		PerformanceHistory: []float64{6.0, 6.0},
	}

	report := buildReport(sess, time.Now())
	require.NotNil(t, report)
	assert.Equal(t, 2, report.QuestionCount)
	assert.InDelta(t, 6.0, report.OverallScore, 1e-9)
	assert.Equal(t, models.TierHard, report.FinalTier)
	assert.InDelta(t, 8.5, report.DimensionAverages[models.DimensionTechnicalAccuracy], 1e-9)
	assert.InDelta(t, 3.5, report.DimensionAverages[models.DimensionCommunication], 1e-9)
	assert.Equal(t, []string{models.DimensionTechnicalAccuracy}, report.Strengths)
	assert.Equal(t, []string{models.DimensionCommunication}, report.Gaps)
	assert.GreaterOrEqual(t, report.DurationMs, int64(10*60*1000))
	require.NotNil(t, report.ScoreConfidence)
	assert.InDelta(t, 6.0, report.ScoreConfidence.Mean, 1e-9)
}

func TestBuildReportEmptyHistory(t *testing.T) {
	report := buildReport(&models.InterviewSession{CurrentTier: models.TierMedium}, time.Now())
	assert.Zero(t, report.OverallScore)
	assert.Empty(t, report.DimensionAverages)
}
