package failure

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory. With a positive capacity the
// oldest records are dropped once it is exceeded.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	closed   bool
}

// NewMemoryStore creates an in-memory store. capacity <= 0 is unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.records = append(s.records, normalize(rec))
	if s.capacity > 0 && len(s.records) > s.capacity {
		s.records = append(s.records[:0:0], s.records[len(s.records)-s.capacity:]...)
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, listenerID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if listenerID != "" && rec.ListenerID != listenerID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, listenerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	if listenerID == "" {
		return len(s.records), nil
	}
	n := 0
	for _, rec := range s.records {
		if rec.ListenerID == listenerID {
			n++
		}
	}
	return n, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}
