package event

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrKeyConflict is returned when a key ID is already bound to a different key.
var ErrKeyConflict = errors.New("event key id already registered")

// KeyRegistry indexes keys by ID and enforces ID uniqueness.
//
// The subtype cache compares keys by ID, so two distinct keys sharing an ID
// would corrupt its answers. Producers register their keys here at init time.
type KeyRegistry struct {
	mu   sync.RWMutex
	keys map[string]*Key
}

// NewKeyRegistry creates an empty key registry.
func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{keys: make(map[string]*Key)}
	r.keys[Root.id] = Root
	return r
}

// Register adds a key. Registering the same key twice is a no-op;
// registering a different key under an existing ID fails.
func (r *KeyRegistry) Register(key *Key) error {
	if key == nil {
		return errors.New("event key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.keys[key.id]; ok {
		if existing == key {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrKeyConflict, key.id)
	}
	r.keys[key.id] = key
	return nil
}

// MustRegister registers a key, panicking on error.
func (r *KeyRegistry) MustRegister(key *Key) *Key {
	if err := r.Register(key); err != nil {
		panic(fmt.Sprintf("failed to register event key: %v", err))
	}
	return key
}

// Get returns the key registered under id.
func (r *KeyRegistry) Get(id string) (*Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[id]
	return k, ok
}

// Has returns true if a key is registered under id.
func (r *KeyRegistry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// IDs returns all registered key IDs in lexical order.
func (r *KeyRegistry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.keys))
	for id := range r.keys {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// DefaultKeys is the process-wide key registry.
var DefaultKeys = NewKeyRegistry()

// Define declares a key for E and registers it in DefaultKeys.
func Define[E Event](id string, parents ...*Key) *Key {
	return DefaultKeys.MustRegister(KeyFor[E](id, parents...))
}
