package evaluation

import (
	"regexp"
	"strings"
)

// Heuristic scoring weights. The three components sum to the full [0,10]
// range: length 4, structure 3, keyword overlap 3.
const (
	lengthPoints    = 4.0
	structurePoints = 3.0
	keywordPoints   = 3.0

	// fullCreditWords is the answer length (in words) that earns the full
	// length component.
	fullCreditWords = 120
)

var (
	bulletPattern   = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)
	codePattern     = regexp.MustCompile("```|\\b(?:func|def|class|SELECT|return)\\b")
	examplePhrases  = []string{"for example", "for instance", "such as", "e.g.", "in practice"}
	tradeoffPhrases = []string{"trade-off", "tradeoff", "however", "on the other hand", "alternatively", "complexity"}
)

// topicTermSets maps topic families to the terms a strong answer in that
// family tends to use. Matching is by substring on the session topic.
var topicTermSets = map[string][]string{
	"algorithm":        {"complexity", "big o", "o(n", "runtime", "sorting", "search", "recursion", "iteration", "optimal", "edge case", "invariant"},
	"data structure":   {"array", "hash", "tree", "heap", "queue", "stack", "linked list", "graph", "lookup", "insertion", "amortized"},
	"database":         {"index", "query", "transaction", "normalization", "join", "schema", "acid", "replication", "shard", "consistency"},
	"network":          {"tcp", "udp", "http", "latency", "packet", "dns", "tls", "socket", "handshake", "routing"},
	"concurrency":      {"goroutine", "thread", "lock", "mutex", "race", "deadlock", "channel", "atomic", "synchronization", "parallel"},
	"system design":    {"scalability", "load balancer", "cache", "queue", "throughput", "availability", "partition", "replication", "latency", "bottleneck"},
	"machine learning": {"model", "training", "overfitting", "feature", "gradient", "loss", "dataset", "validation", "accuracy", "regularization"},
	"web":              {"http", "rest", "api", "session", "cookie", "cors", "authentication", "frontend", "backend", "request"},
}

// genericTerms apply to every topic as a fallback vocabulary.
var genericTerms = []string{
	"because", "design", "performance", "test", "measure", "implement",
	"approach", "constraint", "requirement", "scale",
}

// HeuristicScorer produces the deterministic structural score in [0,10] from
// answer length, structural markers, and keyword overlap with topic term sets.
type HeuristicScorer struct {
	// ExtraTerms supplements the built-in term sets for every topic.
	ExtraTerms []string
}

// Score computes the heuristic score for an answer. Identical inputs always
// produce identical scores.
func (h *HeuristicScorer) Score(answer, topic string) float64 {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0
	}

	score := h.lengthScore(answer) + h.structureScore(answer) + h.keywordScore(answer, topic)
	return clamp(score, 0, 10)
}

func (h *HeuristicScorer) lengthScore(answer string) float64 {
	words := len(strings.Fields(answer))
	frac := float64(words) / fullCreditWords
	if frac > 1 {
		frac = 1
	}
	return frac * lengthPoints
}

func (h *HeuristicScorer) structureScore(answer string) float64 {
	lower := strings.ToLower(answer)
	var hits float64

	if bulletPattern.MatchString(answer) {
		hits++
	}
	if containsAny(lower, examplePhrases) {
		hits++
	}
	if containsAny(lower, tradeoffPhrases) || codePattern.MatchString(answer) {
		hits++
	}

	return hits / 3 * structurePoints
}

func (h *HeuristicScorer) keywordScore(answer, topic string) float64 {
	lower := strings.ToLower(answer)
	terms := termsForTopic(topic)
	terms = append(terms, h.ExtraTerms...)

	var matched int
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			matched++
		}
	}

	// Five distinct term hits earn full keyword credit.
	frac := float64(matched) / 5
	if frac > 1 {
		frac = 1
	}
	return frac * keywordPoints
}

func termsForTopic(topic string) []string {
	lower := strings.ToLower(topic)
	terms := append([]string(nil), genericTerms...)
	for family, familyTerms := range topicTermSets {
		if strings.Contains(lower, family) {
			terms = append(terms, familyTerms...)
		}
	}
	return terms
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
