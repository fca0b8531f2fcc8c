package event

import (
	"fmt"
	"sync"
)

// CastFunc converts an arbitrary value into an Event of a key's type.
// It returns false when the value is not of that type.
type CastFunc func(v any) (Event, bool)

// Key is the polymorphic type tag of an event.
//
// Keys form a DAG rooted at Root. A key may declare several parents, so an
// event can be both a message event and an organization event without any
// language-level inheritance. Keys are immutable after construction and are
// meant to be declared once as package-level values.
type Key struct {
	id      string
	parents []*Key
	cast    CastFunc

	// Memoized subtype answers keyed by ancestor ID. Append-only.
	subtypes    sync.Map
	notSubtypes sync.Map
}

// Root is the universal ancestor of every key.
var Root = &Key{
	id:   "botevent.root",
	cast: func(v any) (Event, bool) { e, ok := v.(Event); return e, ok },
}

// NewKey declares a key. It panics on an empty ID, a nil cast function or a
// nil parent: a broken key declaration is a programming error that must
// surface at definition time.
func NewKey(id string, cast CastFunc, parents ...*Key) *Key {
	if id == "" {
		panic("event: key id is required")
	}
	if cast == nil {
		panic(fmt.Sprintf("event: key %q has no cast function", id))
	}
	ps := make([]*Key, 0, len(parents))
	for i, p := range parents {
		if p == nil {
			panic(fmt.Sprintf("event: key %q has nil parent at index %d", id, i))
		}
		ps = append(ps, p)
	}
	return &Key{id: id, parents: ps, cast: cast}
}

// KeyFor declares a key whose cast is a type assertion to E.
//
// Example:
//
//	var FriendAddKey = event.KeyFor[*FriendAdd]("example.friend_add", event.Root)
func KeyFor[E Event](id string, parents ...*Key) *Key {
	return NewKey(id, func(v any) (Event, bool) {
		e, ok := v.(E)
		if !ok {
			return nil, false
		}
		return e, true
	}, parents...)
}

// ID returns the globally unique key identifier.
func (k *Key) ID() string {
	return k.id
}

// Parents returns a copy of the declared parent keys.
func (k *Key) Parents() []*Key {
	out := make([]*Key, len(k.parents))
	copy(out, k.parents)
	return out
}

// String implements fmt.Stringer.
func (k *Key) String() string {
	return "EventKey(" + k.id + ")"
}

// SafeCast converts v into an Event of this key's type.
// It returns nil on mismatch; callers treat nil as "does not apply".
func (k *Key) SafeCast(v any) Event {
	if k == nil || v == nil {
		return nil
	}
	e, ok := k.cast(v)
	if !ok {
		return nil
	}
	return e
}

// IsSubtypeOf reports whether k is ancestor or one of its descendants.
func (k *Key) IsSubtypeOf(ancestor *Key) bool {
	return IsSubtypeOf(k, ancestor)
}

// IsSubtypeOf reports whether candidate equals ancestor or transitively
// declares it as a parent. Every key is a subtype of Root.
//
// Answers are memoized on the candidate per ancestor ID; both memo tables
// are append-only so concurrent callers can only ever observe the same
// answer.
func IsSubtypeOf(candidate, ancestor *Key) bool {
	if candidate == nil || ancestor == nil {
		return false
	}
	if ancestor == Root || ancestor.id == Root.id || candidate.id == ancestor.id {
		return true
	}
	for _, p := range candidate.parents {
		if p.id == ancestor.id {
			return true
		}
	}

	if _, ok := candidate.subtypes.Load(ancestor.id); ok {
		return true
	}
	if _, ok := candidate.notSubtypes.Load(ancestor.id); ok {
		return false
	}

	result := false
	for _, p := range candidate.parents {
		if IsSubtypeOf(p, ancestor) {
			result = true
			break
		}
	}

	if result {
		candidate.subtypes.Store(ancestor.id, struct{}{})
	} else {
		candidate.notSubtypes.Store(ancestor.id, struct{}{})
	}
	return result
}

// Cast converts v into E if key accepts it and the result is an E.
func Cast[E Event](key *Key, v any) (E, bool) {
	var zero E
	e := key.SafeCast(v)
	if e == nil {
		return zero, false
	}
	typed, ok := e.(E)
	if !ok {
		return zero, false
	}
	return typed, true
}
