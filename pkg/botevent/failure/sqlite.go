package failure

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists failure records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite failure store.
// The path should be a file path (e.g., "./failures.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS listener_failures (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			event_key TEXT NOT NULL,
			listener_id TEXT NOT NULL,
			error TEXT NOT NULL,
			panicked INTEGER NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listener_failures_listener
		ON listener_failures(listener_id, occurred_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	rec = normalize(rec)
	panicked := 0
	if rec.Panicked {
		panicked = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listener_failures
			(id, event_id, event_key, listener_id, error, panicked, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.EventID, rec.EventKey, rec.ListenerID, rec.Error, panicked,
		rec.OccurredAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save failure record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, listenerID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_key, listener_id, error, panicked, occurred_at
		FROM listener_failures
		WHERE ? = '' OR listener_id = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?
	`, listenerID, listenerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list failure records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var occurred string
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventKey, &rec.ListenerID,
			&rec.Error, &rec.Panicked, &occurred); err != nil {
			return nil, fmt.Errorf("scan failure record: %w", err)
		}
		rec.OccurredAt, _ = time.Parse(timeLayout, occurred)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure records: %w", err)
	}
	return out, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context, listenerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM listener_failures
		WHERE ? = '' OR listener_id = ?
	`, listenerID, listenerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failure records: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
