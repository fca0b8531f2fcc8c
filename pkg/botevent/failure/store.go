// Package failure records listener failures for later inspection.
//
// The manager saves one Record per contained listener error or panic.
// Records are diagnostics only; events themselves are never stored.
package failure

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store persists failure records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record. A missing ID or OccurredAt is filled in.
	Save(ctx context.Context, rec Record) error

	// List returns the newest records first, at most limit of them
	// (limit <= 0 means all). An empty listenerID lists every listener.
	List(ctx context.Context, listenerID string, limit int) ([]Record, error)

	// Count returns the number of records for listenerID, or all records
	// when it is empty.
	Count(ctx context.Context, listenerID string) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Record describes one contained listener failure.
type Record struct {
	ID         string
	EventID    string
	EventKey   string
	ListenerID string
	Error      string
	Panicked   bool
	OccurredAt time.Time
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("failure store closed")

func normalize(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now()
	}
	rec.OccurredAt = rec.OccurredAt.UTC()
	return rec
}
