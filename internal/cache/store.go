package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// Store is the persistent tier: one row per cache key in cache_entries.
type Store struct {
	db *sql.DB
}

// OpenStore opens the persistent tier at path, migrating (destructively if
// necessary) to the current schema.
func OpenStore(path string) (*Store, error) {
	db, err := openMigrated(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the payload and expiry for key, or ok=false when the row is
// absent or has expired. Expired rows are left in place; reads are read-only
// and the sweep reaps them. The expiry is returned so callers promoting the
// payload to a faster tier keep the row's original deadline.
func (s *Store) Get(key string, nowNs int64) ([]byte, int64, bool, error) {
	var payload []byte
	var expiresNs int64
	err := s.db.QueryRow(
		"SELECT payload, expires_at_ns FROM cache_entries WHERE key = ?", key,
	).Scan(&payload, &expiresNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if nowNs > expiresNs {
		return nil, 0, false, nil
	}
	return payload, expiresNs, true, nil
}

// Put upserts the row for key. The write is a single statement; a failed
// write leaves either the previous row or no row, never a partial one.
func (s *Store) Put(key string, payload []byte, createdNs, expiresNs int64) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (key, payload, size_bytes, created_at_ns, expires_at_ns)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			size_bytes = excluded.size_bytes,
			created_at_ns = excluded.created_at_ns,
			expires_at_ns = excluded.expires_at_ns`,
		key, payload, len(payload), createdNs, expiresNs,
	)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// Delete removes the row for key if present.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

// DeleteExpired reaps rows whose expiry has passed and reports how many.
func (s *Store) DeleteExpired(nowNs int64) (int64, error) {
	res, err := s.db.Exec("DELETE FROM cache_entries WHERE expires_at_ns < ?", nowNs)
	if err != nil {
		return 0, fmt.Errorf("cache delete expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Clear drops every row.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Count returns the number of rows, expired or not.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cache_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
