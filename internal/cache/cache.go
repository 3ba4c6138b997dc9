// Package cache provides the two-tier advisory cache consulted by the
// generation gateway and the evaluation engine: a bounded in-process LRU in
// front of a larger SQLite-backed store with TTL eviction.
//
// The cache is advisory by contract. Any tier failure degrades to a miss and
// the caller falls through to generation; a cache error is never surfaced as
// a turn error.
package cache

import (
	"log/slog"
	"sync"
)

// Tiered is the combined hot + durable cache. Lookups go hot → durable →
// miss; writes populate both tiers.
type Tiered struct {
	mu      sync.Mutex
	hot     *LRU
	durable *Durable
	logger  *slog.Logger
}

// NewTiered creates the combined cache. durable may be nil for an
// in-process-only configuration.
func NewTiered(hotCapacity int, durable *Durable, logger *slog.Logger) *Tiered {
	if logger == nil {
		logger = slog.Default()
	}
	if hotCapacity <= 0 {
		hotCapacity = 100
	}
	return &Tiered{
		hot:     NewLRU(hotCapacity),
		durable: durable,
		logger:  logger,
	}
}

// Get returns the cached payload for key, consulting the hot tier first. A
// durable hit repopulates the hot tier.
func (t *Tiered) Get(key string) ([]byte, bool) {
	if t == nil {
		return nil, false
	}

	t.mu.Lock()
	value, ok := t.hot.Get(key)
	t.mu.Unlock()
	if ok {
		return value, true
	}

	if t.durable == nil {
		return nil, false
	}

	value, ok, err := t.durable.Get(key)
	if err != nil {
		t.logger.Debug("durable cache read failed, treating as miss", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	t.mu.Lock()
	t.hot.Set(key, value)
	t.mu.Unlock()
	return value, true
}

// Put stores the payload in both tiers. Durable write failures are logged
// and otherwise ignored.
func (t *Tiered) Put(key string, value []byte) {
	if t == nil {
		return
	}

	t.mu.Lock()
	t.hot.Set(key, value)
	t.mu.Unlock()

	if t.durable == nil {
		return
	}
	if err := t.durable.Put(key, value); err != nil {
		t.logger.Debug("durable cache write failed", "error", err)
	}
}

// Close releases the durable tier, if any.
func (t *Tiered) Close() error {
	if t == nil || t.durable == nil {
		return nil
	}
	return t.durable.Close()
}
