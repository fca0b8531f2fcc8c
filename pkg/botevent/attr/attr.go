// Package attr provides typed attribute keys and concurrent attribute maps.
//
// Attribute maps back the scopes a processing context exposes: an instant
// scope living for one dispatched event, a global scope living for the
// manager and a continuous-session scope shared by waiting sessions.
package attr

import (
	"sort"
	"sync"
)

// Scope names an attribute scope.
type Scope int

// Attribute scopes, from shortest to longest lived.
const (
	Instant Scope = iota
	Global
	ContinuousSession
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case Instant:
		return "instant"
	case Global:
		return "global"
	case ContinuousSession:
		return "continuous_session"
	default:
		return "unknown"
	}
}

// Key identifies an attribute of type T. Two keys with the same name address
// the same slot, so names should be namespaced ("myplugin.counter").
type Key[T any] struct {
	name string
}

// NewKey creates an attribute key.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name.
func (k Key[T]) Name() string {
	return k.name
}

// Map is a thread-safe attribute container.
// It uses sync.RWMutex because attribute reads far outnumber writes.
type Map struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMap creates an empty attribute map.
func NewMap() *Map {
	return &Map{entries: make(map[string]any)}
}

// Get returns the value stored under key and whether it exists with type T.
func Get[T any](m *Map, key Key[T]) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	m.mu.RLock()
	v, ok := m.entries[key.name]
	m.mu.RUnlock()
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key, replacing any previous value.
func Set[T any](m *Map, key Key[T], value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.name] = value
}

// Remove deletes key and returns the removed value.
func Remove[T any](m *Map, key Key[T]) (T, bool) {
	var zero T
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key.name]
	if !ok {
		return zero, false
	}
	delete(m.entries, key.name)
	typed, ok := v.(T)
	return typed, ok
}

// GetOrCreate returns the value for key, creating it with factory if absent.
// The factory runs at most once per key, even under concurrent access.
func GetOrCreate[T any](m *Map, key Key[T], factory func() T) T {
	if v, ok := Get(m, key); ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if v, ok := m.entries[key.name]; ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}

	v := factory()
	m.entries[key.name] = v
	return v
}

// Has returns true if an attribute named name exists.
func (m *Map) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[name]
	return ok
}

// Len returns the number of attributes.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Names returns all attribute names in lexical order.
func (m *Map) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Range iterates over a snapshot of the map, so fn may modify the map.
// Iteration stops when fn returns false.
func (m *Map) Range(fn func(name string, value any) bool) {
	m.mu.RLock()
	snapshot := make(map[string]any, len(m.entries))
	for k, v := range m.entries {
		snapshot[k] = v
	}
	m.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}

// Clear removes every attribute.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]any)
}
