package session

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banterlab/vetta/internal/models"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	payload       BLOB NOT NULL,
	phase         TEXT NOT NULL,
	last_activity INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase);
`

// Persister mirrors session state to SQLite so interviews survive process
// restarts. It is write-through: the in-memory store remains the source of
// truth while the process is up.
type Persister struct {
	db *sql.DB
}

// OpenPersister opens (or creates) the session database and runs migrations.
func OpenPersister(path string) (*Persister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &Persister{db: db}, nil
}

// Save upserts one session row.
func (p *Persister) Save(sess *models.InterviewSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = p.db.Exec(
		`INSERT INTO sessions (id, payload, phase, last_activity) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			phase = excluded.phase,
			last_activity = excluded.last_activity`,
		sess.ID, payload, string(sess.Phase), sess.LastActivity.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes one session row. Deleting a missing row is not an error.
func (p *Persister) Delete(id string) error {
	if _, err := p.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LoadAll returns every persisted session. Rows that fail to decode are
// skipped rather than failing the whole load.
func (p *Persister) LoadAll() ([]*models.InterviewSession, error) {
	rows, err := p.db.Query(`SELECT payload FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var sessions []*models.InterviewSession
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var sess models.InterviewSession
		if err := json.Unmarshal(payload, &sess); err != nil {
			continue
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// Close closes the underlying database.
func (p *Persister) Close() error {
	return p.db.Close()
}
