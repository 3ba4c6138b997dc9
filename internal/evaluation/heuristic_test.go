package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicScoreEmpty(t *testing.T) {
	h := &HeuristicScorer{}
	assert.Zero(t, h.Score("", "algorithms"))
	assert.Zero(t, h.Score("   \n\t  ", "algorithms"))
}

func TestHeuristicScoreDeterministic(t *testing.T) {
	h := &HeuristicScorer{}
	answer := "Binary search halves the search space on each step, so the runtime is O(log n)."
	first := h.Score(answer, "algorithms")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, h.Score(answer, "algorithms"))
	}
}

func TestHeuristicScoreOrdering(t *testing.T) {
	h := &HeuristicScorer{}

	weak := h.Score("idk", "algorithms")

	strong := h.Score(strings.TrimSpace(`
A binary search tree keeps keys ordered so lookup, insertion, and deletion
run in O(log n) time when the tree is balanced. Some points worth covering:

- The invariant is that every left subtree holds smaller keys and every right
  subtree holds larger ones.
- Worst-case complexity degrades to O(n) on a degenerate tree, which is why
  self-balancing variants exist.
- For example, red-black trees bound the height by rotating on insertion.

The trade-off against a hash table is ordered iteration versus O(1) average
lookup. In practice I would measure both before choosing, because the
constant factors depend on the workload and cache behavior. An implementation
should also test edge cases such as duplicate keys and empty trees, and the
recursion depth matters for very large inputs.
`), "algorithms and data structures")

	assert.Less(t, weak, 2.0)
	assert.Greater(t, strong, 7.0)
	assert.LessOrEqual(t, strong, 10.0)
}

func TestHeuristicLengthSaturates(t *testing.T) {
	h := &HeuristicScorer{}
	long := strings.Repeat("word ", 500)
	longer := strings.Repeat("word ", 2000)
	assert.Equal(t, h.lengthScore(long), h.lengthScore(longer))
	assert.InDelta(t, lengthPoints, h.lengthScore(long), 1e-9)
}

func TestHeuristicKeywordScoreUsesTopicTerms(t *testing.T) {
	h := &HeuristicScorer{}
	answer := "use an index on the join column and keep transactions short to preserve acid guarantees across the schema"

	onTopic := h.keywordScore(answer, "database internals")
	offTopic := h.keywordScore(answer, "machine learning")
	assert.Greater(t, onTopic, offTopic)
}

func TestHeuristicExtraTerms(t *testing.T) {
	plain := &HeuristicScorer{}
	tuned := &HeuristicScorer{ExtraTerms: []string{"raftlog", "quorum"}}
	answer := "the raftlog is replicated once a quorum acknowledges the entry"

	assert.Greater(t, tuned.Score(answer, "consensus"), plain.Score(answer, "consensus"))
}

func TestTermsForTopicMatchesMultipleFamilies(t *testing.T) {
	terms := termsForTopic("database system design")
	assert.Contains(t, terms, "transaction")
	assert.Contains(t, terms, "load balancer")
	assert.Contains(t, terms, "because")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-1, 0, 10))
	assert.Equal(t, 10.0, clamp(11, 0, 10))
	assert.Equal(t, 5.5, clamp(5.5, 0, 10))
}
