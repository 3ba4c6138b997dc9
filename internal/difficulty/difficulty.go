// Package difficulty decides the next question's difficulty tier from rolling
// answer performance. The rule is deterministic hysteresis, not a learned
// policy: identical histories always produce identical tiers.
package difficulty

import "github.com/banterlab/vetta/internal/models"

// Adapter steps the difficulty tier up or down based on the trailing mean of
// recent blended scores.
type Adapter struct {
	// StepUpThreshold is the trailing mean at or above which the tier
	// steps up one level (capped at hard).
	StepUpThreshold float64
	// StepDownThreshold is the trailing mean below which the tier steps
	// down one level (floored at easy).
	StepDownThreshold float64
	// TrailingWindow is how many recent scores feed the mean.
	TrailingWindow int
}

// NewAdapter returns an adapter with the given thresholds. A non-positive
// window defaults to 3.
func NewAdapter(stepUp, stepDown float64, window int) *Adapter {
	if window <= 0 {
		window = 3
	}
	return &Adapter{
		StepUpThreshold:   stepUp,
		StepDownThreshold: stepDown,
		TrailingWindow:    window,
	}
}

// Next returns the tier for the upcoming question. An empty history keeps the
// current tier unchanged.
func (a *Adapter) Next(history []float64, current models.Tier) models.Tier {
	if len(history) == 0 {
		return current
	}

	mean := a.trailingMean(history)
	switch {
	case mean >= a.StepUpThreshold:
		return stepUp(current)
	case mean < a.StepDownThreshold:
		return stepDown(current)
	default:
		return current
	}
}

func (a *Adapter) trailingMean(history []float64) float64 {
	window := history
	if len(window) > a.TrailingWindow {
		window = window[len(window)-a.TrailingWindow:]
	}
	var sum float64
	for _, score := range window {
		sum += score
	}
	return sum / float64(len(window))
}

func stepUp(t models.Tier) models.Tier {
	switch t {
	case models.TierEasy:
		return models.TierMedium
	case models.TierMedium:
		return models.TierHard
	default:
		return models.TierHard
	}
}

func stepDown(t models.Tier) models.Tier {
	switch t {
	case models.TierHard:
		return models.TierMedium
	case models.TierMedium:
		return models.TierEasy
	default:
		return models.TierEasy
	}
}
