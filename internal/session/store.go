// Package session provides the concurrent session store. The store owns all
// interview session state: callers receive deep clones and commit changes
// back through Update, which serializes writers per session.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banterlab/vetta/internal/models"
)

// Config controls expiration behavior for the store.
type Config struct {
	// TTL is how long a session may sit idle before it becomes unreachable.
	TTL time.Duration

	// CompletedRetention is the longer window applied to completed sessions
	// so their reports stay retrievable after the interview ends.
	CompletedRetention time.Duration

	Logger *slog.Logger
}

type entry struct {
	mu   sync.Mutex
	sess *models.InterviewSession
}

// Store is an in-memory map of session id to session state. Access to a
// given session is serialized by a per-entry mutex; different sessions
// proceed fully in parallel. An optional Persister mirrors every commit to
// disk so sessions survive restarts.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl                time.Duration
	completedRetention time.Duration

	persister *Persister
	logger    *slog.Logger

	now func() time.Time
}

// NewStore creates an empty store. persister may be nil for memory-only
// operation.
func NewStore(cfg Config, persister *Persister) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions:           make(map[string]*entry),
		ttl:                cfg.TTL,
		completedRetention: cfg.CompletedRetention,
		persister:          persister,
		logger:             logger,
		now:                time.Now,
	}
}

// Restore loads previously persisted sessions into the store. Sessions that
// are already past their expiration window are skipped.
func (s *Store) Restore() (int, error) {
	if s.persister == nil {
		return 0, nil
	}
	sessions, err := s.persister.LoadAll()
	if err != nil {
		return 0, err
	}

	now := s.now()
	restored := 0
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		if s.expired(sess, now) {
			continue
		}
		s.sessions[sess.ID] = &entry{sess: sess}
		restored++
	}
	return restored, nil
}

// Create registers a new session, assigning its id and timestamps. The
// returned clone is safe for the caller to read without further locking.
func (s *Store) Create(sess *models.InterviewSession) (*models.InterviewSession, error) {
	now := s.now()
	stored := sess.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.LastActivity = now

	s.mu.Lock()
	s.sessions[stored.ID] = &entry{sess: stored}
	s.mu.Unlock()

	s.persist(stored)
	return stored.Clone(), nil
}

// Get returns a clone of the session and refreshes its last-activity time.
// An expired session is removed immediately and reported as expired, even if
// the background sweep has not reached it yet.
func (s *Store) Get(id string) (*models.InterviewSession, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, models.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil, models.ErrSessionNotFound
	}

	now := s.now()
	if s.expired(e.sess, now) {
		s.remove(id, e)
		return nil, models.ErrSessionExpired
	}

	e.sess.LastActivity = now
	s.persist(e.sess)
	return e.sess.Clone(), nil
}

// Update runs fn against a clone of the session under the per-session lock.
// The clone replaces the stored state only when fn returns nil, so a failed
// turn leaves the prior state untouched. The committed state is returned.
func (s *Store) Update(id string, fn func(sess *models.InterviewSession) error) (*models.InterviewSession, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, models.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil, models.ErrSessionNotFound
	}

	now := s.now()
	if s.expired(e.sess, now) {
		s.remove(id, e)
		return nil, models.ErrSessionExpired
	}

	working := e.sess.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	working.LastActivity = s.now()
	e.sess = working
	s.persist(working)
	return working.Clone(), nil
}

// Delete removes a session regardless of its phase.
func (s *Store) Delete(id string) error {
	e, ok := s.lookup(id)
	if !ok {
		return models.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return models.ErrSessionNotFound
	}
	s.remove(id, e)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns a snapshot of current session ids.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Sweep removes every expired session and returns how many were removed.
// Each id from the snapshot is re-checked under its own lock, tolerating
// concurrent updates or deletes between snapshot and removal.
func (s *Store) Sweep() int {
	removed := 0
	now := s.now()
	for _, id := range s.IDs() {
		e, ok := s.lookup(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		if e.sess != nil && s.expired(e.sess, now) {
			s.remove(id, e)
			removed++
		}
		e.mu.Unlock()
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", "count", removed)
	}
	return removed
}

// RunSweeper runs the background expiration sweep until ctx is canceled.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Debug("session sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("session sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

// remove must be called with e.mu held. The nil sess marks the entry dead
// for any goroutine that already holds a pointer to it.
func (s *Store) remove(id string, e *entry) {
	e.sess = nil
	s.mu.Lock()
	if cur, ok := s.sessions[id]; ok && cur == e {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Delete(id); err != nil {
			s.logger.Warn("session persistence delete failed", "session_id", id, "error", err)
		}
	}
}

func (s *Store) expired(sess *models.InterviewSession, now time.Time) bool {
	window := s.ttl
	if sess.Phase == models.PhaseComplete {
		window = s.completedRetention
	}
	if window <= 0 {
		return false
	}
	return sess.LastActivity.Add(window).Before(now)
}

func (s *Store) persist(sess *models.InterviewSession) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(sess); err != nil {
		s.logger.Warn("session persistence failed", "session_id", sess.ID, "error", err)
	}
}
