// Package webapi exposes the interview turn protocol over HTTP.
package webapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/banterlab/vetta/internal/interview"
	"github.com/banterlab/vetta/internal/models"
)

// Version is reported by the health endpoint.
var Version = "0.3.0"

// Handlers holds the HTTP handler methods for the interview API.
type Handlers struct {
	machine *interview.Machine
}

// NewHandlers creates a new Handlers around the orchestration machine.
func NewHandlers(machine *interview.Machine) *Handlers {
	return &Handlers{machine: machine}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleStartInterview creates a session and returns the first question.
func (h *Handlers) HandleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.NewValidationError("invalid request body: %v", err))
		return
	}

	res, err := h.machine.Start(r.Context(), interview.StartRequest{
		CandidateName: req.CandidateName,
		Topic:         req.Topic,
		TargetRole:    req.TargetRole,
		MaxQuestions:  req.MaxQuestions,
		Difficulty:    req.Difficulty,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, StartInterviewResponse{
		SessionID:      res.SessionID,
		Greeting:       res.Greeting,
		Question:       res.Question,
		QuestionNumber: res.QuestionNumber,
		Tier:           res.Tier,
		Degraded:       res.Degraded,
	})
}

// HandleSubmitAnswer evaluates an answer and advances the session.
func (h *Handlers) HandleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.NewValidationError("invalid request body: %v", err))
		return
	}

	res, err := h.machine.Submit(r.Context(), id, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SubmitAnswerResponse{
		Status:         string(res.Status),
		Evaluation:     res.Evaluation,
		NextQuestion:   res.NextQuestion,
		QuestionNumber: res.QuestionNumber,
		Tier:           res.Tier,
		FinalReport:    res.FinalReport,
		Degraded:       res.Degraded,
	})
}

// HandleGetSession returns a read-only snapshot, re-serving the current
// question without advancing the interview.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sess, err := h.machine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.machine.Resume(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Status: string(res.Status),
		Session: &SessionSnapshot{
			ID:                 sess.ID,
			CandidateName:      sess.CandidateName,
			Topic:              sess.Topic,
			TargetRole:         sess.TargetRole,
			QuestionNumber:     sess.QuestionNumber,
			MaxQuestions:       sess.MaxQuestions,
			Phase:              sess.Phase,
			CurrentTier:        sess.CurrentTier,
			PerformanceHistory: sess.PerformanceHistory,
			QAHistory:          sess.QAHistory,
		},
		Question:       res.Question,
		QuestionNumber: res.QuestionNumber,
		Tier:           res.Tier,
		FinalReport:    res.FinalReport,
	})
}

// HandleDeleteSession removes a session.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.machine.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers all interview API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, machine *interview.Machine) {
	h := NewHandlers(machine)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/interviews", h.HandleStartInterview)
	mux.HandleFunc("POST /api/interviews/{id}/answers", h.HandleSubmitAnswer)
	mux.HandleFunc("GET /api/interviews/{id}", h.HandleGetSession)
	mux.HandleFunc("DELETE /api/interviews/{id}", h.HandleDeleteSession)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeSessionNotFound:
		return http.StatusNotFound
	case models.CodeSessionExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps a domain error to its HTTP status. Internal errors cross
// the boundary with a sanitized message only.
func writeError(w http.ResponseWriter, err error) {
	code := models.ErrorCodeOf(err)
	msg := "internal error"
	var de *models.DomainError
	if errors.As(err, &de) {
		msg = de.Message
	}
	writeJSON(w, statusForCode(code), ErrorResponse{Code: code, Message: msg})
}
