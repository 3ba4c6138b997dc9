package interview

import (
	"sort"
	"time"

	"github.com/banterlab/vetta/internal/models"
	"github.com/banterlab/vetta/internal/statistics"
)

const (
	strengthThreshold = 7.5
	gapThreshold      = 5.0
)

// buildReport aggregates a finished session into its final report: mean
// blended score overall, per-dimension averages, and the dimensions that
// stood out in either direction.
func buildReport(sess *models.InterviewSession, now time.Time) *models.FinalReport {
	report := &models.FinalReport{
		SessionID:         sess.ID,
		CandidateName:     sess.CandidateName,
		Topic:             sess.Topic,
		TargetRole:        sess.TargetRole,
		QuestionCount:     len(sess.QAHistory),
		FinalTier:         sess.CurrentTier,
		CompletedAt:       now,
		DurationMs:        now.Sub(sess.CreatedAt).Milliseconds(),
		DimensionAverages: make(map[string]float64),
	}

	if len(sess.PerformanceHistory) > 0 {
		report.OverallScore = statistics.Mean(sess.PerformanceHistory)
		ci := statistics.BootstrapCI(sess.PerformanceHistory, 0.95)
		report.ScoreConfidence = &ci
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, qa := range sess.QAHistory {
		if qa.Evaluation == nil {
			continue
		}
		for dim, score := range qa.Evaluation.DimensionScores {
			sums[dim] += score
			counts[dim]++
		}
	}

	dims := make([]string, 0, len(sums))
	for dim := range sums {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	for _, dim := range dims {
		avg := sums[dim] / float64(counts[dim])
		report.DimensionAverages[dim] = avg
		switch {
		case avg >= strengthThreshold:
			report.Strengths = append(report.Strengths, dim)
		case avg < gapThreshold:
			report.Gaps = append(report.Gaps, dim)
		}
	}

	return report
}
