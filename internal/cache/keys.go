package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/banterlab/vetta/internal/models"
)

// QuestionKey derives a fingerprint for a question-generation request from
// the topic, difficulty tier, and a hash of the questions already asked, so a
// session that has covered different ground never reuses another session's
// question.
func QuestionKey(topic string, tier models.Tier, recentQuestions []string) string {
	h := sha256.New()
	writeString(h, "question")
	writeString(h, strings.ToLower(strings.TrimSpace(topic)))
	writeString(h, string(tier))

	// Sort for deterministic hashing regardless of ask order.
	sorted := make([]string, len(recentQuestions))
	copy(sorted, recentQuestions)
	sort.Strings(sorted)
	for _, q := range sorted {
		writeString(h, strings.ToLower(strings.TrimSpace(q)))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// EvaluationKey derives a fingerprint for an evaluation of one answer.
func EvaluationKey(question, answer string) string {
	h := sha256.New()
	writeString(h, "evaluation")
	writeString(h, question)
	writeString(h, answer)
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(w io.Writer, s string) {
	// Null byte delimiter prevents hash collisions between adjacent fields.
	fmt.Fprintf(w, "%s\x00", s) //nolint:errcheck
}
