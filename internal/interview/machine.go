// Package interview implements the turn-based orchestration machine: it
// drives a session from greeting through question generation, answer
// evaluation, and difficulty adaptation to the final report.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/banterlab/vetta/internal/cache"
	"github.com/banterlab/vetta/internal/difficulty"
	"github.com/banterlab/vetta/internal/evaluation"
	"github.com/banterlab/vetta/internal/gateway"
	"github.com/banterlab/vetta/internal/models"
	"github.com/banterlab/vetta/internal/session"
)

// TurnStatus tells the caller whether the interview continues or is done.
type TurnStatus string

const (
	StatusContinue  TurnStatus = "continue"
	StatusCompleted TurnStatus = "completed"
)

// StartRequest carries the inputs for a new interview.
type StartRequest struct {
	CandidateName string
	Topic         string
	TargetRole    string
	MaxQuestions  int
	Difficulty    string
}

// StartResult is returned after the first question has been generated.
type StartResult struct {
	SessionID      string
	Greeting       string
	Question       string
	QuestionNumber int
	Tier           models.Tier

	// Degraded is set when the question came from the fallback pool
	// because generation failed or kept repeating itself.
	Degraded bool
}

// SubmitResult is the outcome of one answer submission.
type SubmitResult struct {
	Status         TurnStatus
	Evaluation     *models.EvaluationResult
	NextQuestion   string
	QuestionNumber int
	Tier           models.Tier
	FinalReport    *models.FinalReport
	Degraded       bool
}

// ResumeResult re-serves the current state of a session without advancing it.
type ResumeResult struct {
	Status         TurnStatus
	Question       string
	QuestionNumber int
	Tier           models.Tier
	FinalReport    *models.FinalReport
}

// Evaluator scores one answer. Satisfied by *evaluation.Engine.
type Evaluator interface {
	Evaluate(ctx context.Context, in evaluation.Input) (*models.EvaluationResult, error)
}

// Config tunes the machine. Zero values fall back to sensible defaults.
type Config struct {
	DefaultMaxQuestions int
	Logger              *slog.Logger
}

// Machine coordinates one turn at a time. It holds no per-session state of
// its own: every turn re-fetches the session by id and commits the whole
// transition through the store, so a failed turn leaves the session as it
// was.
type Machine struct {
	store   *session.Store
	gen     gateway.Generator
	eval    Evaluator
	adapter *difficulty.Adapter
	cache   *cache.Tiered
	cfg     Config
	logger  *slog.Logger
}

// NewMachine wires the machine to its collaborators. cache may be nil.
func NewMachine(store *session.Store, gen gateway.Generator, eval Evaluator, adapter *difficulty.Adapter, cache *cache.Tiered, cfg Config) *Machine {
	if cfg.DefaultMaxQuestions <= 0 {
		cfg.DefaultMaxQuestions = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		store:   store,
		gen:     gen,
		eval:    eval,
		adapter: adapter,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start creates a session, greets the candidate, and serves the first
// question. The session is committed in one step with the question already
// in place, so a generation failure never leaves a half-built session
// behind.
func (m *Machine) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	name := strings.TrimSpace(req.CandidateName)
	topic := strings.TrimSpace(req.Topic)
	if name == "" {
		return nil, models.NewValidationError("candidate name is required")
	}
	if len(name) > maxNameLen {
		return nil, models.NewValidationError("candidate name exceeds %d characters", maxNameLen)
	}
	if topic == "" {
		return nil, models.NewValidationError("topic is required")
	}
	if len(topic) > maxTopicLen {
		return nil, models.NewValidationError("topic exceeds %d characters", maxTopicLen)
	}
	tier, ok := models.ParseTier(req.Difficulty)
	if !ok {
		return nil, models.NewValidationError("unknown difficulty %q", req.Difficulty)
	}
	maxQuestions := req.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = m.cfg.DefaultMaxQuestions
	}

	// Generation outlives caller cancellation so an abandoned start still
	// warms the cache for the next attempt.
	genCtx := context.WithoutCancel(ctx)

	greeting := m.greet(genCtx, name, topic, req.TargetRole)
	question, degraded := m.nextQuestion(genCtx, topic, req.TargetRole, tier, 0, nil)

	sess := &models.InterviewSession{
		CandidateName:   name,
		Topic:           topic,
		TargetRole:      strings.TrimSpace(req.TargetRole),
		MaxQuestions:    maxQuestions,
		CurrentQuestion: question,
		CurrentTier:     tier,
		Phase:           models.PhaseAwaitingAnswer,
		Greeting:        greeting,
	}
	created, err := m.store.Create(sess)
	if err != nil {
		return nil, err
	}

	m.logger.Info("interview started",
		"session_id", created.ID,
		"topic", topic,
		"tier", tier,
		"max_questions", maxQuestions,
		"degraded", degraded)

	return &StartResult{
		SessionID:      created.ID,
		Greeting:       greeting,
		Question:       question,
		QuestionNumber: 1,
		Tier:           tier,
		Degraded:       degraded,
	}, nil
}

// Submit evaluates an answer and either serves the next question or closes
// the interview with a final report. The whole transition runs inside one
// store update, so concurrent submissions for the same session serialize
// and either fully apply or leave the prior state untouched.
func (m *Machine) Submit(ctx context.Context, sessionID, answer string) (*SubmitResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, models.NewValidationError("answer must not be empty")
	}
	if len(answer) > maxAnswerLen {
		return nil, models.NewValidationError("answer exceeds %d characters", maxAnswerLen)
	}

	genCtx := context.WithoutCancel(ctx)

	var result SubmitResult
	_, err := m.store.Update(sessionID, func(sess *models.InterviewSession) error {
		if sess.Phase == models.PhaseComplete {
			result = SubmitResult{
				Status:         StatusCompleted,
				QuestionNumber: sess.QuestionNumber,
				Tier:           sess.CurrentTier,
				FinalReport:    sess.Report.Clone(),
			}
			return nil
		}
		if sess.CurrentQuestion == "" {
			return models.NewValidationError("session has no question awaiting an answer")
		}

		sess.Phase = models.PhaseEvaluating
		eval, err := m.eval.Evaluate(genCtx, evaluation.Input{
			Question: sess.CurrentQuestion,
			Answer:   answer,
			Topic:    sess.Topic,
		})
		if err != nil {
			return fmt.Errorf("evaluating answer: %w", err)
		}

		sess.QAHistory = append(sess.QAHistory, models.QARecord{
			Question:   sess.CurrentQuestion,
			Answer:     answer,
			Tier:       sess.CurrentTier,
			Evaluation: eval,
		})
		sess.PerformanceHistory = append(sess.PerformanceHistory, eval.BlendedScore)
		sess.QuestionNumber++
		sess.CurrentQuestion = ""

		if sess.QuestionNumber >= sess.MaxQuestions {
			sess.Phase = models.PhaseComplete
			sess.Report = buildReport(sess, time.Now())
			result = SubmitResult{
				Status:         StatusCompleted,
				Evaluation:     eval,
				QuestionNumber: sess.QuestionNumber,
				Tier:           sess.CurrentTier,
				FinalReport:    sess.Report.Clone(),
			}
			return nil
		}

		nextTier := m.adapter.Next(sess.PerformanceHistory, sess.CurrentTier)
		question, degraded := m.nextQuestion(genCtx, sess.Topic, sess.TargetRole, nextTier, sess.QuestionNumber, sess.AskedQuestions())

		sess.CurrentQuestion = question
		sess.CurrentTier = nextTier
		sess.Phase = models.PhaseAwaitingAnswer

		result = SubmitResult{
			Status:         StatusContinue,
			Evaluation:     eval,
			NextQuestion:   question,
			QuestionNumber: sess.QuestionNumber + 1,
			Tier:           nextTier,
			Degraded:       degraded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("answer evaluated",
		"session_id", sessionID,
		"status", result.Status,
		"question_number", result.QuestionNumber,
		"tier", result.Tier)
	return &result, nil
}

// Resume re-serves the current question (or the final report) without
// advancing the session. Calling it any number of times returns the same
// question and never mutates the question number.
func (m *Machine) Resume(sessionID string) (*ResumeResult, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Phase == models.PhaseComplete {
		return &ResumeResult{
			Status:         StatusCompleted,
			QuestionNumber: sess.QuestionNumber,
			Tier:           sess.CurrentTier,
			FinalReport:    sess.Report,
		}, nil
	}
	return &ResumeResult{
		Status:         StatusContinue,
		Question:       sess.CurrentQuestion,
		QuestionNumber: sess.QuestionNumber + 1,
		Tier:           sess.CurrentTier,
	}, nil
}

// Snapshot returns a read-only copy of the full session.
func (m *Machine) Snapshot(sessionID string) (*models.InterviewSession, error) {
	return m.store.Get(sessionID)
}

// Delete removes a session.
func (m *Machine) Delete(sessionID string) error {
	return m.store.Delete(sessionID)
}

func (m *Machine) greet(ctx context.Context, name, topic, role string) string {
	prompt := buildGreetingPrompt(name, topic, role)
	greeting, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		m.logger.Warn("greeting generation failed, using canned greeting", "error", err)
		return fmt.Sprintf("Welcome, %s! Let's talk about %s. Take your time with each answer.", name, topic)
	}
	return strings.TrimSpace(greeting)
}

// nextQuestion produces a question for the given tier, consulting the cache
// first, then generating with a bounded duplicate-rejection loop, and
// finally falling back to the pre-authored pool. degraded is true only when
// the fallback pool had to be used.
func (m *Machine) nextQuestion(ctx context.Context, topic, role string, tier models.Tier, questionNumber int, asked []string) (string, bool) {
	key := cache.QuestionKey(topic, tier, asked)
	if cached, ok := m.cache.Get(key); ok {
		if q := string(cached); !isDuplicate(q, asked) {
			m.logger.Debug("question served from cache", "tier", tier)
			return q, false
		}
	}

	prompt := buildQuestionPrompt(topic, role, tier, asked)
	for attempt := 1; attempt <= questionRetries; attempt++ {
		question, err := m.gen.Generate(ctx, prompt)
		if err != nil {
			m.logger.Warn("question generation failed, serving fallback",
				"tier", tier, "attempt", attempt, "error", err)
			return fallbackQuestion(topic, tier, questionNumber, asked), true
		}
		question = strings.TrimSpace(question)
		if isDuplicate(question, asked) {
			m.logger.Debug("generated question duplicates history, retrying", "attempt", attempt)
			continue
		}
		m.cache.Put(key, []byte(question))
		return question, false
	}

	m.logger.Warn("generation kept producing duplicates, serving fallback", "tier", tier)
	return fallbackQuestion(topic, tier, questionNumber, asked), true
}
