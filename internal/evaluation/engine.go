// Package evaluation scores answers by blending three signals: a
// deterministic heuristic, embedding similarity, and a model rubric that is
// double-checked by a critic pass. Any signal can fail without failing the
// turn; the result degrades instead.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/banterlab/vetta/internal/cache"
	"github.com/banterlab/vetta/internal/gateway"
	"github.com/banterlab/vetta/internal/models"
)

// Config holds the scoring weights and thresholds. Zero values are replaced
// with the documented defaults by New.
type Config struct {
	ModelWeight       float64
	HeuristicWeight   float64
	OffTopicThreshold float64
	OffTopicCeiling   float64
	ExtraTerms        []string
}

// Input identifies one answer to score.
type Input struct {
	Question string
	Answer   string
	Topic    string
}

// Engine runs the scoring pipeline.
type Engine struct {
	gen       gateway.Generator
	heuristic *HeuristicScorer
	semantic  *SemanticScorer
	store     *cache.Tiered
	cfg       Config
	logger    *slog.Logger
}

// New creates an evaluation engine. store may be nil to disable result
// caching.
func New(gen gateway.Generator, embedder gateway.Embedder, store *cache.Tiered, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ModelWeight == 0 {
		cfg.ModelWeight = 0.6
	}
	if cfg.HeuristicWeight == 0 {
		cfg.HeuristicWeight = 0.4
	}
	if cfg.OffTopicThreshold == 0 {
		cfg.OffTopicThreshold = 0.25
	}
	if cfg.OffTopicCeiling == 0 {
		cfg.OffTopicCeiling = 3.0
	}
	return &Engine{
		gen:       gen,
		heuristic: &HeuristicScorer{ExtraTerms: cfg.ExtraTerms},
		semantic:  NewSemanticScorer(embedder),
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// Dimensions returns the rubric dimensions for a topic. Code quality is only
// rated for engineering topics.
func Dimensions(topic string) []string {
	dims := []string{
		models.DimensionTechnicalAccuracy,
		models.DimensionCommunication,
		models.DimensionProblemSolving,
	}
	if isEngineeringTopic(topic) {
		dims = append(dims, models.DimensionCodeQuality)
	}
	return dims
}

var engineeringMarkers = []string{
	"algorithm", "data structure", "programming", "coding", "software",
	"backend", "frontend", "engineering", "concurrency", "database",
	"system design", "go", "python", "java", "rust",
}

func isEngineeringTopic(topic string) bool {
	lower := strings.ToLower(topic)
	for _, marker := range engineeringMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Evaluate scores one answer. It never returns an error for upstream model
// failures; those degrade to heuristic-only scoring. The only error paths
// are programmer mistakes (empty input).
func (e *Engine) Evaluate(ctx context.Context, in Input) (*models.EvaluationResult, error) {
	if in.Question == "" || in.Answer == "" {
		return nil, fmt.Errorf("evaluation requires a question and an answer")
	}

	key := cache.EvaluationKey(in.Question, in.Answer)
	if cached := e.cachedResult(key); cached != nil {
		e.logger.Debug("evaluation cache hit", "key", key[:12])
		return cached, nil
	}

	dims := Dimensions(in.Topic)
	heuristicScore := e.heuristic.Score(in.Answer, in.Topic)

	// The semantic and rubric signals are independent model-side calls;
	// run them concurrently. Their failures are captured, not propagated:
	// each one degrades on its own.
	var (
		wg        sync.WaitGroup
		semScore  float64
		semErr    error
		rubric    *rubricResponse
		rubricErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		semScore, semErr = e.semantic.Score(ctx, in.Question, in.Topic, in.Answer)
	}()
	go func() {
		defer wg.Done()
		rubric, rubricErr = scoreRubric(ctx, e.gen, in.Question, in.Answer, in.Topic, dims)
	}()
	wg.Wait()

	result := &models.EvaluationResult{
		HeuristicScore:  heuristicScore,
		DimensionScores: make(map[string]float64, len(dims)),
	}

	if semErr != nil {
		e.logger.Warn("semantic scoring unavailable", "error", semErr)
	} else {
		result.SemanticScore = semScore
		result.SemanticAvailable = true
	}

	if rubricErr != nil {
		e.logger.Warn("rubric scoring failed, degrading to heuristic-only", "error", rubricErr)
		e.degrade(result, dims)
	} else {
		rubric = e.applyCritic(ctx, in, dims, rubric, result)
		e.applyRubric(result, rubric, dims)
	}

	result.BlendedScore = e.blend(result)

	e.storeResult(key, result)
	return result, nil
}

// applyCritic runs the self-correction pass: a second model call reviews the
// rubric for consistency, and one re-evaluation is allowed when it objects.
// The retry is bounded by construction: there is no loop to terminate.
func (e *Engine) applyCritic(ctx context.Context, in Input, dims []string, rubric *rubricResponse, result *models.EvaluationResult) *rubricResponse {
	verdict, err := critique(ctx, e.gen, in.Question, in.Answer, rubric)
	if err != nil {
		e.logger.Warn("critic pass failed, keeping original rubric", "error", err)
		return rubric
	}

	result.CritiqueApplied = true
	if verdict.Consistent {
		return rubric
	}

	e.logger.Debug("critic flagged inconsistency, re-scoring once", "reason", verdict.Reason)
	revised, err := scoreRubric(ctx, e.gen, in.Question, in.Answer, in.Topic, dims)
	if err != nil {
		e.logger.Warn("rubric re-score failed, keeping original", "error", err)
		return rubric
	}
	return revised
}

// applyRubric folds the rubric ratings into the result, rescaling 1–5 ratings
// onto [0,10].
func (e *Engine) applyRubric(result *models.EvaluationResult, rubric *rubricResponse, dims []string) {
	var sum float64
	var n int
	for _, dim := range dims {
		rating, ok := rubric.Dimensions[dim]
		if !ok {
			continue
		}
		rescaled := rescaleRating(rating)
		result.DimensionScores[dim] = rescaled
		sum += rescaled
		n++
	}

	modelScore := sum / float64(n)
	result.ModelScore = &modelScore
	result.Feedback = rubric.Feedback
}

// degrade fills in a heuristic-only result: model score absent, dimension
// scores defaulted to the heuristic score replicated across dimensions.
func (e *Engine) degrade(result *models.EvaluationResult, dims []string) {
	result.Degraded = true
	result.ModelScore = nil
	for _, dim := range dims {
		result.DimensionScores[dim] = result.HeuristicScore
	}
	result.Feedback = "Automated structural assessment only; detailed feedback was unavailable for this answer."
}

// blend combines the signals into the final score. The off-topic check is a
// hard ceiling override on the weighted average, not an input to it.
func (e *Engine) blend(result *models.EvaluationResult) float64 {
	var blended float64
	if result.ModelScore != nil {
		blended = e.cfg.ModelWeight**result.ModelScore + e.cfg.HeuristicWeight*result.HeuristicScore
	} else {
		blended = result.HeuristicScore
	}

	ceiling := 10.0
	if result.SemanticAvailable && result.SemanticScore < e.cfg.OffTopicThreshold {
		ceiling = e.cfg.OffTopicCeiling
	}
	return clamp(blended, 0, ceiling)
}

func rescaleRating(rating float64) float64 {
	return clamp((rating-1)*2.5, 0, 10)
}

func (e *Engine) cachedResult(key string) *models.EvaluationResult {
	if e.store == nil {
		return nil
	}
	payload, ok := e.store.Get(key)
	if !ok {
		return nil
	}
	var result models.EvaluationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		e.logger.Debug("discarding undecodable cached evaluation", "error", err)
		return nil
	}
	return &result
}

func (e *Engine) storeResult(key string, result *models.EvaluationResult) {
	if e.store == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	e.store.Put(key, payload)
}
