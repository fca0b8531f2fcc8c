// Package listener defines event listeners, their results and the contexts
// they run in.
//
// A Listener declares which event keys it targets, a match predicate and an
// invoke action. The manager resolves listeners per key, orders them and
// drives them through interceptor chains; this package only describes the
// pieces.
package listener

import (
	"github.com/randalmurphal/botevent/pkg/botevent/attr"
	"github.com/randalmurphal/botevent/pkg/botevent/event"
)

// DefaultPriority is the priority of listeners that do not set one.
const DefaultPriority = 0

// Listener is a registered event handler.
type Listener interface {
	// ID uniquely identifies the listener within a manager.
	ID() string

	// Priority orders listeners within the sync and async groups.
	// Lower values run earlier.
	Priority() int

	// IsAsync makes the manager launch the listener detached.
	IsAsync() bool

	// IsTarget reports whether events of key are relevant at all.
	IsTarget(key *event.Key) bool

	// Match decides whether this particular event should be handled.
	Match(ctx *Context) (bool, error)

	// Invoke handles the event.
	Invoke(ctx *Context) (Result, error)

	// Attributes holds extension data attached at construction.
	Attributes() *attr.Map
}

// MatchFunc is a match predicate over a listener context.
type MatchFunc func(ctx *Context) (bool, error)

// InvokeFunc is a listener action.
type InvokeFunc func(ctx *Context) (Result, error)

// Option configures a listener built by New.
type Option func(*funcListener)

// WithPriority sets the priority (default: DefaultPriority).
func WithPriority(p int) Option {
	return func(l *funcListener) {
		l.priority = p
	}
}

// WithAsync marks the listener as asynchronous.
func WithAsync() Option {
	return func(l *funcListener) {
		l.async = true
	}
}

// ForKeys restricts the listener to events whose key is a subtype of any of
// keys. Without ForKeys a listener targets every event.
func ForKeys(keys ...*event.Key) Option {
	return func(l *funcListener) {
		l.keys = append(l.keys, keys...)
	}
}

// WithMatcher adds match predicates; all of them must pass.
func WithMatcher(matchers ...MatchFunc) Option {
	return func(l *funcListener) {
		l.matchers = append(l.matchers, matchers...)
	}
}

// WithAttribute stores an extension attribute on the listener.
func WithAttribute[T any](key attr.Key[T], value T) Option {
	return func(l *funcListener) {
		attr.Set(l.attributes, key, value)
	}
}

// funcListener is the Listener implementation built by New.
type funcListener struct {
	id         string
	priority   int
	async      bool
	keys       []*event.Key
	matchers   []MatchFunc
	invoke     InvokeFunc
	attributes *attr.Map
}

// New builds a listener from an invoke function.
//
// Example:
//
//	l := listener.New("greeter", func(ctx *listener.Context) (listener.Result, error) {
//	    return listener.Of("hello"), nil
//	}, listener.ForKeys(event.MessageKey), listener.WithMatcher(filter.TextEquals("hi")))
func New(id string, invoke InvokeFunc, opts ...Option) Listener {
	l := &funcListener{
		id:         id,
		priority:   DefaultPriority,
		invoke:     invoke,
		attributes: attr.NewMap(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *funcListener) ID() string            { return l.id }
func (l *funcListener) Priority() int         { return l.priority }
func (l *funcListener) IsAsync() bool         { return l.async }
func (l *funcListener) Attributes() *attr.Map { return l.attributes }

func (l *funcListener) IsTarget(key *event.Key) bool {
	if len(l.keys) == 0 {
		return key != nil
	}
	for _, k := range l.keys {
		if key.IsSubtypeOf(k) {
			return true
		}
	}
	return false
}

func (l *funcListener) Match(ctx *Context) (bool, error) {
	for _, m := range l.matchers {
		ok, err := m(ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (l *funcListener) Invoke(ctx *Context) (Result, error) {
	if l.invoke == nil {
		return Invalid, nil
	}
	return l.invoke(ctx)
}

func (l *funcListener) String() string {
	return "Listener(" + l.id + ")"
}
