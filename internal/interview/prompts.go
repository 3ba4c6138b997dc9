package interview

import (
	"fmt"
	"strings"

	"github.com/banterlab/vetta/internal/models"
)

var tierGuidance = map[models.Tier]string{
	models.TierEasy:   "a foundational question testing basic understanding, answerable in a few sentences",
	models.TierMedium: "an applied question requiring a worked explanation or concrete example",
	models.TierHard:   "a deep question involving design trade-offs, edge cases, or scale",
}

func buildGreetingPrompt(name, topic, role string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly but professional technical interviewer.\n")
	fmt.Fprintf(&b, "Write a two-sentence greeting for candidate %s who is about to be interviewed on %s.", name, topic)
	if role != "" {
		fmt.Fprintf(&b, " The candidate is applying for a %s role.", role)
	}
	b.WriteString("\nDo not ask the first question yet. Respond with the greeting only.")
	return b.String()
}

func buildQuestionPrompt(topic, role string, tier models.Tier, asked []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a technical interviewer conducting an interview on %s.", topic)
	if role != "" {
		fmt.Fprintf(&b, " The candidate is applying for a %s role.", role)
	}
	fmt.Fprintf(&b, "\nAsk exactly one interview question: %s.\n", tierGuidance[tier])

	if len(asked) > 0 {
		b.WriteString("\nThese questions were already asked. Do not repeat or rephrase any of them:\n")
		for _, q := range asked {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}

	b.WriteString("\nRespond with the question text only, no numbering or preamble.")
	return b.String()
}
