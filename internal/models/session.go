// Package models holds the shared data model for interview sessions,
// evaluation results, and final reports.
package models

import "time"

// Phase represents the lifecycle state of an interview session.
type Phase string

const (
	PhaseNew            Phase = "new"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseEvaluating     Phase = "evaluating"
	PhaseComplete       Phase = "complete"
)

// Tier identifies a question difficulty level.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// ParseTier converts a string flag value to a Tier. An empty string maps to
// TierMedium, the starting difficulty for new sessions.
func ParseTier(s string) (Tier, bool) {
	switch s {
	case "":
		return TierMedium, true
	case "easy":
		return TierEasy, true
	case "medium":
		return TierMedium, true
	case "hard":
		return TierHard, true
	default:
		return "", false
	}
}

// QARecord is one completed question/answer exchange.
type QARecord struct {
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Tier       Tier              `json:"tier"`
	Evaluation *EvaluationResult `json:"evaluation"`
}

// InterviewSession represents one candidate's run. Sessions are owned by the
// session store; callers always operate on clones and commit changes back
// through the store.
type InterviewSession struct {
	ID            string `json:"id"`
	CandidateName string `json:"candidate_name"`
	Topic         string `json:"topic"`
	TargetRole    string `json:"target_role,omitempty"`

	// QuestionNumber counts fully evaluated answers, so it always equals
	// len(QAHistory). The question currently awaiting an answer is
	// QuestionNumber+1 when displayed to the caller.
	QuestionNumber int `json:"question_number"`
	MaxQuestions   int `json:"max_questions"`

	CurrentQuestion string `json:"current_question,omitempty"`
	CurrentTier     Tier   `json:"current_tier"`

	QAHistory          []QARecord `json:"qa_history"`
	PerformanceHistory []float64  `json:"performance_history"`

	Phase        Phase        `json:"phase"`
	Report       *FinalReport `json:"report,omitempty"`
	Greeting     string       `json:"greeting,omitempty"`
	LastActivity time.Time    `json:"last_activity"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Clone returns a deep copy of the session. The store hands out clones so no
// caller can mutate stored state outside an Update.
func (s *InterviewSession) Clone() *InterviewSession {
	if s == nil {
		return nil
	}
	dup := *s

	dup.QAHistory = make([]QARecord, len(s.QAHistory))
	copy(dup.QAHistory, s.QAHistory)
	for i, qa := range s.QAHistory {
		if qa.Evaluation != nil {
			dup.QAHistory[i].Evaluation = qa.Evaluation.Clone()
		}
	}

	dup.PerformanceHistory = make([]float64, len(s.PerformanceHistory))
	copy(dup.PerformanceHistory, s.PerformanceHistory)

	if s.Report != nil {
		dup.Report = s.Report.Clone()
	}

	return &dup
}

// AskedQuestions returns every question already recorded in history plus the
// question currently in flight, used for duplicate detection.
func (s *InterviewSession) AskedQuestions() []string {
	questions := make([]string, 0, len(s.QAHistory)+1)
	for _, qa := range s.QAHistory {
		questions = append(questions, qa.Question)
	}
	if s.CurrentQuestion != "" {
		questions = append(questions, s.CurrentQuestion)
	}
	return questions
}
