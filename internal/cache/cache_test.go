package cache

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banterlab/vetta/internal/models"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	lru := NewLRU(2)
	lru.Set("a", []byte("1"))
	lru.Set("b", []byte("2"))

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := lru.Get("a")
	require.True(t, ok)

	lru.Set("c", []byte("3"))
	assert.Equal(t, 2, lru.Len())

	_, ok = lru.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = lru.Get("a")
	assert.True(t, ok)
	_, ok = lru.Get("c")
	assert.True(t, ok)
}

func TestLRUOverwrite(t *testing.T) {
	lru := NewLRU(2)
	lru.Set("a", []byte("1"))
	lru.Set("a", []byte("2"))

	v, ok := lru.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)
	assert.Equal(t, 1, lru.Len())
}

func TestQuestionKeyStability(t *testing.T) {
	asked := []string{"What is a heap?", "What is a stack?"}

	k1 := QuestionKey("algorithms", models.TierMedium, asked)
	k2 := QuestionKey("algorithms", models.TierMedium, []string{"What is a stack?", "What is a heap?"})
	assert.Equal(t, k1, k2, "question order must not change the key")

	k3 := QuestionKey("algorithms", models.TierHard, asked)
	assert.NotEqual(t, k1, k3, "tier is part of the key")

	k4 := QuestionKey("databases", models.TierMedium, asked)
	assert.NotEqual(t, k1, k4, "topic is part of the key")
}

func TestEvaluationKeyDistinguishesInputs(t *testing.T) {
	k1 := EvaluationKey("q", "a")
	k2 := EvaluationKey("q", "b")
	k3 := EvaluationKey("q2", "a")
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	// Concatenation must not collide across the field boundary.
	assert.NotEqual(t, EvaluationKey("ab", "c"), EvaluationKey("a", "bc"))
}

func newTestDurable(t *testing.T, capacity int, ttl time.Duration) *Durable {
	t.Helper()
	d, err := OpenDurable(filepath.Join(t.TempDir(), "cache.db"), capacity, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() }) //nolint:errcheck
	return d
}

func TestDurableRoundTrip(t *testing.T) {
	d := newTestDurable(t, 10, time.Hour)

	require.NoError(t, d.Put("k", []byte("payload")))
	v, ok, err := d.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), v)

	_, ok, err = d.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDurableTTLExpiry(t *testing.T) {
	d := newTestDurable(t, 10, time.Nanosecond)

	require.NoError(t, d.Put("k", []byte("payload")))
	time.Sleep(10 * time.Millisecond)

	_, ok, err := d.Get("k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries read as misses")

	n, err := d.Purge()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDurableCapacityEviction(t *testing.T) {
	d := newTestDurable(t, 3, time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Put(fmt.Sprintf("k%d", i), []byte("v")))
	}

	n, err := d.Len()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 3)
}

func TestDurableClear(t *testing.T) {
	d := newTestDurable(t, 10, time.Hour)
	require.NoError(t, d.Put("k", []byte("v")))
	require.NoError(t, d.Clear())

	n, err := d.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTieredLookupOrder(t *testing.T) {
	durable := newTestDurable(t, 10, time.Hour)
	tiered := NewTiered(2, durable, nil)

	tiered.Put("k", []byte("v"))

	// Hot hit.
	v, ok := tiered.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	// Evict from hot; the durable tier must still serve it and repopulate
	// the hot tier.
	tiered.Put("a", []byte("1"))
	tiered.Put("b", []byte("2"))
	v, ok = tiered.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	_, ok = tiered.hot.Get("k")
	assert.True(t, ok, "durable hit repopulates the hot tier")
}

func TestTieredWithoutDurable(t *testing.T) {
	tiered := NewTiered(2, nil, nil)
	tiered.Put("k", []byte("v"))

	v, ok := tiered.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestTieredNilIsAlwaysMiss(t *testing.T) {
	var tiered *Tiered
	tiered.Put("k", []byte("v"))
	_, ok := tiered.Get("k")
	assert.False(t, ok)
}
