package webapi

import (
	"github.com/banterlab/vetta/internal/models"
)

// StartInterviewRequest is the body for POST /api/interviews.
type StartInterviewRequest struct {
	CandidateName string `json:"candidateName"`
	Topic         string `json:"topic"`
	TargetRole    string `json:"targetRole,omitempty"`
	MaxQuestions  int    `json:"maxQuestions,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
}

// StartInterviewResponse returns the first question of a new session.
type StartInterviewResponse struct {
	SessionID      string      `json:"sessionId"`
	Greeting       string      `json:"greeting,omitempty"`
	Question       string      `json:"question"`
	QuestionNumber int         `json:"questionNumber"`
	Tier           models.Tier `json:"tier"`
	Degraded       bool        `json:"degraded,omitempty"`
}

// SubmitAnswerRequest is the body for POST /api/interviews/{id}/answers.
type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswerResponse carries the evaluation of the submitted answer and
// either the next question or the final report.
type SubmitAnswerResponse struct {
	Status         string                   `json:"status"`
	Evaluation     *models.EvaluationResult `json:"evaluation,omitempty"`
	NextQuestion   string                   `json:"nextQuestion,omitempty"`
	QuestionNumber int                      `json:"questionNumber"`
	Tier           models.Tier              `json:"tier"`
	FinalReport    *models.FinalReport      `json:"finalReport,omitempty"`
	Degraded       bool                     `json:"degraded,omitempty"`
}

// SessionResponse is a read-only snapshot for resume.
type SessionResponse struct {
	Status         string              `json:"status"`
	Session        *SessionSnapshot    `json:"session"`
	Question       string              `json:"question,omitempty"`
	QuestionNumber int                 `json:"questionNumber"`
	Tier           models.Tier         `json:"tier"`
	FinalReport    *models.FinalReport `json:"finalReport,omitempty"`
}

// SessionSnapshot exposes session state without the in-flight question
// internals the caller should not depend on.
type SessionSnapshot struct {
	ID                 string            `json:"id"`
	CandidateName      string            `json:"candidateName"`
	Topic              string            `json:"topic"`
	TargetRole         string            `json:"targetRole,omitempty"`
	QuestionNumber     int               `json:"questionNumber"`
	MaxQuestions       int               `json:"maxQuestions"`
	Phase              models.Phase      `json:"phase"`
	CurrentTier        models.Tier       `json:"currentTier"`
	PerformanceHistory []float64         `json:"performanceHistory"`
	QAHistory          []models.QARecord `json:"qaHistory"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the structured error body callers can branch on.
type ErrorResponse struct {
	Code    models.ErrorCode `json:"code"`
	Message string           `json:"message"`
}
