package listener

import (
	"context"
	"log/slog"
	"sync"

	"github.com/randalmurphal/botevent/pkg/botevent/attr"
	"github.com/randalmurphal/botevent/pkg/botevent/event"
)

// ProcessingContext is the state of one dispatched event.
// It extends context.Context with the event, the results gathered so far
// and the attribute scopes visible to listeners.
type ProcessingContext struct {
	context.Context

	event  event.Event
	logger *slog.Logger

	mu      sync.Mutex
	results []Result

	instant  *attr.Map
	global   *attr.Map
	sessions *attr.Map
}

// ContextOption configures a ProcessingContext.
type ContextOption func(*ProcessingContext)

// WithLogger sets the logger. It is enriched with the event ID and key.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *ProcessingContext) {
		c.logger = logger
	}
}

// WithGlobalScope sets the manager-lifetime attribute scope.
func WithGlobalScope(m *attr.Map) ContextOption {
	return func(c *ProcessingContext) {
		c.global = m
	}
}

// WithSessionScope sets the continuous-session attribute scope.
func WithSessionScope(m *attr.Map) ContextOption {
	return func(c *ProcessingContext) {
		c.sessions = m
	}
}

// NewProcessingContext creates the context for dispatching ev.
// Scopes that are not supplied get a private empty map.
func NewProcessingContext(ctx context.Context, ev event.Event, opts ...ContextOption) *ProcessingContext {
	pc := &ProcessingContext{
		Context: ctx,
		event:   ev,
		logger:  slog.Default(),
		instant: attr.NewMap(),
	}
	for _, opt := range opts {
		opt(pc)
	}
	if pc.global == nil {
		pc.global = attr.NewMap()
	}
	if pc.sessions == nil {
		pc.sessions = attr.NewMap()
	}
	pc.logger = pc.logger.With("event_id", ev.ID(), "event_key", ev.Key().ID())
	return pc
}

// Detached returns a copy for work that outlives the dispatch: it is never
// cancelled with the original context and starts with no results. Event,
// logger and attribute scopes are shared.
func (c *ProcessingContext) Detached() *ProcessingContext {
	return &ProcessingContext{
		Context:  context.WithoutCancel(c.Context),
		event:    c.event,
		logger:   c.logger,
		instant:  c.instant,
		global:   c.global,
		sessions: c.sessions,
	}
}

// Event returns the event being dispatched.
func (c *ProcessingContext) Event() event.Event {
	return c.event
}

// Logger returns a logger enriched with the event identity.
func (c *ProcessingContext) Logger() *slog.Logger {
	return c.logger
}

// AddResult appends r unless it is invalid. It reports whether r was kept.
func (c *ProcessingContext) AddResult(r Result) bool {
	if IsInvalid(r) {
		return false
	}
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	return true
}

// Results returns a snapshot of the results appended so far.
func (c *ProcessingContext) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// ProcessingResult returns the results appended so far.
func (c *ProcessingContext) ProcessingResult() *ProcessingResult {
	return NewProcessingResult(c.Results())
}

// Attributes returns the attribute map of a scope.
func (c *ProcessingContext) Attributes(scope attr.Scope) *attr.Map {
	switch scope {
	case attr.Global:
		return c.global
	case attr.ContinuousSession:
		return c.sessions
	default:
		return c.instant
	}
}

// Context is the view of a ProcessingContext for one executing listener.
type Context struct {
	*ProcessingContext

	listener    Listener
	textContent string
}

// NewContext creates the listener-scoped context. The text content starts
// as the plain text of a message event, or empty.
func NewContext(pc *ProcessingContext, l Listener) *Context {
	c := &Context{ProcessingContext: pc, listener: l}
	if msg, ok := pc.event.(event.MessageEvent); ok && msg.Content() != nil {
		c.textContent = msg.Content().PlainText()
	}
	return c
}

// Listener returns the executing listener.
func (c *Context) Listener() Listener {
	return c.listener
}

// TextContent returns the text matchers should inspect.
func (c *Context) TextContent() string {
	return c.textContent
}

// SetTextContent replaces the text hint, e.g. to strip a command prefix
// before matching.
func (c *Context) SetTextContent(text string) {
	c.textContent = text
}
