package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

const durableSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_created ON cache_entries(created_at);
`

// Durable is the larger persistent cache tier, backed by SQLite with
// time-to-live eviction and a hard capacity bound. Payloads are stored
// zstd-compressed.
type Durable struct {
	db       *sql.DB
	capacity int
	ttl      time.Duration
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// OpenDurable opens (or creates) the durable cache database and runs
// migrations.
func OpenDurable(path string, capacity int, ttl time.Duration) (*Durable, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(durableSchema); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &Durable{
		db:       db,
		capacity: capacity,
		ttl:      ttl,
		enc:      enc,
		dec:      dec,
	}, nil
}

// Get returns the payload for key if present and not expired. Expired rows
// are treated as misses; they are removed lazily by Purge.
func (d *Durable) Get(key string) ([]byte, bool, error) {
	var payload []byte
	var createdAt int64
	err := d.db.QueryRow(
		`SELECT payload, created_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	if d.expired(createdAt, time.Now()) {
		return nil, false, nil
	}

	value, err := d.dec.DecodeAll(payload, nil)
	if err != nil {
		// Corrupt entry, treat as miss.
		return nil, false, nil
	}
	return value, true, nil
}

// Put stores a payload, replacing any existing entry for key. When the store
// exceeds its capacity the oldest entries are evicted.
func (d *Durable) Put(key string, value []byte) error {
	compressed := d.enc.EncodeAll(value, nil)

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(
		`INSERT INTO cache_entries (key, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		key, compressed, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}

	if d.capacity > 0 {
		_, err = tx.Exec(
			`DELETE FROM cache_entries WHERE key IN (
				SELECT key FROM cache_entries ORDER BY created_at DESC LIMIT -1 OFFSET ?
			)`, d.capacity,
		)
		if err != nil {
			return fmt.Errorf("cache evict: %w", err)
		}
	}

	return tx.Commit()
}

// Purge removes all expired entries and returns how many were deleted.
func (d *Durable) Purge() (int, error) {
	if d.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-d.ttl).Unix()
	res, err := d.db.Exec(`DELETE FROM cache_entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Len returns the current entry count.
func (d *Durable) Len() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (d *Durable) Clear() error {
	if _, err := d.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *Durable) Close() error {
	d.enc.Close() //nolint:errcheck
	d.dec.Close()
	return d.db.Close()
}

func (d *Durable) expired(createdAt int64, now time.Time) bool {
	if d.ttl <= 0 {
		return false
	}
	return time.Unix(createdAt, 0).Add(d.ttl).Before(now)
}
