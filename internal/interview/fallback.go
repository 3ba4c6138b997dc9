package interview

import (
	"fmt"

	"github.com/banterlab/vetta/internal/models"
)

// fallbackPool holds pre-authored question templates per tier, used when
// generation fails or keeps producing duplicates. %s is the interview topic.
var fallbackPool = map[models.Tier][]string{
	models.TierEasy: {
		"What first drew you to %s, and what do you find most interesting about it?",
		"Can you explain a core concept of %s in terms a newcomer would understand?",
		"Describe a small project or exercise where you applied %s. What did you learn?",
		"What tools or resources do you rely on when working with %s?",
		"What is a common beginner mistake in %s, and how would you avoid it?",
		"How would you explain the value of %s to a non-technical colleague?",
	},
	models.TierMedium: {
		"Walk me through how you would approach a typical problem in %s, step by step.",
		"Describe a time something went wrong in a %s project. How did you diagnose it?",
		"What trade-offs do you weigh when choosing between different approaches in %s?",
		"How do you verify that your work in %s is correct? Give a concrete example.",
		"Explain a concept from %s that people often get wrong, and set the record straight.",
		"How would you bring a junior colleague up to speed on %s?",
	},
	models.TierHard: {
		"Design a solution in %s for a system that must handle ten times its current load. What breaks first?",
		"Describe the hardest problem you have solved involving %s and the key insight behind your solution.",
		"What are the fundamental limitations of the standard approaches in %s, and when do they matter?",
		"You inherit a failing system built around %s with no documentation. Where do you start and why?",
		"Compare two competing approaches in %s at depth: failure modes, costs, and when each wins.",
		"How would you evaluate whether a cutting-edge technique in %s is ready for production use?",
	},
}

// fallbackQuestion returns a pre-authored question for the given tier,
// rotating through the pool by question number. If the rotation lands on a
// question already asked, the next free slot is used, so the pool never
// repeats within a session shorter than the pool.
func fallbackQuestion(topic string, tier models.Tier, questionNumber int, asked []string) string {
	pool, ok := fallbackPool[tier]
	if !ok {
		pool = fallbackPool[models.TierMedium]
	}

	seen := make(map[string]struct{}, len(asked))
	for _, q := range asked {
		seen[normalizeQuestion(q)] = struct{}{}
	}

	for offset := range pool {
		candidate := fmt.Sprintf(pool[(questionNumber+offset)%len(pool)], topic)
		if _, dup := seen[normalizeQuestion(candidate)]; !dup {
			return candidate
		}
	}
	// Every slot taken, disambiguate by ordinal.
	return fmt.Sprintf("Question %d: tell me more about your experience with %s.", questionNumber+1, topic)
}
