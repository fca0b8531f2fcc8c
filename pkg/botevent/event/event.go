// Package event defines bot events and their polymorphic key system.
//
// An Event is an immutable fact produced by a platform adapter. Its Key is
// the event's type tag: keys form a multi-parent DAG rooted at Root and
// answer subtype queries with a memoized, concurrency-safe cache. Listeners
// bind to keys, never to Go types, so one event can satisfy several
// taxonomies at once.
//
// Capabilities (author, source, message content) are small interfaces an
// event type implements in addition to Event.
package event

import (
	"time"

	"github.com/google/uuid"
)

// VisibleScope describes who may observe an event.
type VisibleScope int

// Visible scope constants.
const (
	ScopePublic VisibleScope = iota
	ScopeInternal
	ScopePrivate
)

// String returns the scope name.
func (s VisibleScope) String() string {
	switch s {
	case ScopePublic:
		return "public"
	case ScopeInternal:
		return "internal"
	case ScopePrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Event is the core interface for every dispatched event.
// Events are immutable once created.
type Event interface {
	ID() string
	Key() *Key
	Timestamp() time.Time
	VisibleScope() VisibleScope
}

// SourceEvent is an event that happened inside an organization
// (a group, guild, chat room or channel).
type SourceEvent interface {
	Event
	SourceID() string
}

// AuthorEvent is an event caused by an identifiable user.
type AuthorEvent interface {
	Event
	AuthorID() string
}

// MessageContent is the content of a received message.
type MessageContent interface {
	PlainText() string
}

// MessageEvent is an event carrying a message.
type MessageEvent interface {
	Event
	Content() MessageContent
}

// Base provides the common Event accessors. Embed it in concrete events.
type Base struct {
	EventID  string
	EventKey *Key
	Time     time.Time
	Scope    VisibleScope
}

// ID returns the event identifier.
func (b *Base) ID() string {
	return b.EventID
}

// Key returns the event key.
func (b *Base) Key() *Key {
	return b.EventKey
}

// Timestamp returns when the event occurred.
func (b *Base) Timestamp() time.Time {
	return b.Time
}

// VisibleScope returns the event visibility.
func (b *Base) VisibleScope() VisibleScope {
	return b.Scope
}

// Option configures a Base.
type Option func(*Base)

// WithID sets a specific event ID (default: random UUID).
func WithID(id string) Option {
	return func(b *Base) {
		b.EventID = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(b *Base) {
		b.Time = t
	}
}

// WithVisibleScope sets the visibility (default: ScopePublic).
func WithVisibleScope(s VisibleScope) Option {
	return func(b *Base) {
		b.Scope = s
	}
}

// NewBase creates a Base for the given key. The key is mandatory: events
// without a key cannot be dispatched.
func NewBase(key *Key, opts ...Option) Base {
	if key == nil {
		panic("event: key is required")
	}
	b := Base{
		EventID:  uuid.New().String(),
		EventKey: key,
		Time:     time.Now(),
		Scope:    ScopePublic,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
