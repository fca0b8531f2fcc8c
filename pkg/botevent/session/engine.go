// Package session implements continuous sessions: outstanding waits that
// are offered every subsequently dispatched event until they resolve.
//
// A session has a Provider (push a value, push an error, or cancel; the
// first action wins) and a Receiver (await or cancel). Its Selector runs
// once per dispatched event and decides whether that event resolves it.
// At most one session exists per ID; starting a session under a taken ID
// cancels the previous one with ErrReplaced. A session leaves the engine
// the moment it resolves, whichever path resolved it.
//
// Example:
//
//	reply, err := session.Wait(ctx, engine, "confirm:"+userID,
//	    func(pc *listener.ProcessingContext, p *session.Provider[string]) error {
//	        if m, ok := pc.Event().(event.MessageEvent); ok {
//	            return p.Push(m.Content().PlainText())
//	        }
//	        return nil
//	    }, session.WithTimeout(time.Minute))
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/botevent/pkg/botevent/attr"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
	"github.com/randalmurphal/botevent/pkg/botevent/observability"
)

// Engine is the registry of outstanding sessions.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]entry
	closed   bool
	offers   sync.WaitGroup

	attributes     *attr.Map
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	defaultTimeout time.Duration
	maxConcurrent  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithDefaultTimeout applies d to sessions started without WithTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.defaultTimeout = d
	}
}

// WithMaxConcurrentSelectors bounds how many selectors run at once for one
// event. Zero or less means unbounded.
func WithMaxConcurrentSelectors(n int) Option {
	return func(e *Engine) {
		e.maxConcurrent = n
	}
}

// NewEngine creates an empty session engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sessions:   make(map[string]entry),
		attributes: attr.NewMap(),
		logger:     slog.Default(),
		metrics:    observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WaitOption configures one session.
type WaitOption func(*waitConfig)

type waitConfig struct {
	timeout time.Duration
}

// WithTimeout resolves the session with a *TimeoutError after d unless it
// resolved earlier. Zero disables the engine default.
func WithTimeout(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = d
	}
}

// Start registers a session and returns its halves without blocking.
// An empty id is replaced by a random one. If the engine is closed the
// session is returned already cancelled with ErrClosed.
func Start[T any](e *Engine, id string, selector Selector[T], opts ...WaitOption) (*Provider[T], *Receiver[T]) {
	cfg := waitConfig{timeout: e.defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if id == "" {
		id = uuid.NewString()
	}

	s := newState(e, id, selector)
	e.metrics.RecordSessionStart(context.Background())

	old, err := e.install(s)
	if err != nil {
		s.cancel(err)
		return s.provider, s.receiver
	}
	if old != nil {
		old.cancel(ErrReplaced)
	}
	if cfg.timeout > 0 {
		s.startTimer(cfg.timeout)
	}
	observability.LogSessionStart(e.logger, id, cfg.timeout)
	return s.provider, s.receiver
}

// Wait starts a session and blocks until it resolves. If ctx ends first
// the session is cancelled with the context's cause.
func Wait[T any](ctx context.Context, e *Engine, id string, selector Selector[T], opts ...WaitOption) (T, error) {
	_, r := Start(e, id, selector, opts...)
	select {
	case <-r.Done():
	case <-ctx.Done():
		r.Cancel(context.Cause(ctx))
		<-r.Done()
	}
	return r.s.promise.Result()
}

// install swaps s in under its ID and returns the session it displaced.
func (e *Engine) install(s entry) (entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	old := e.sessions[s.sessionID()]
	e.sessions[s.sessionID()] = s
	return old, nil
}

// evict removes s if it is still the session registered under id.
func (e *Engine) evict(id string, s entry) {
	e.mu.Lock()
	if cur, ok := e.sessions[id]; ok && cur == s {
		delete(e.sessions, id)
	}
	e.mu.Unlock()
}

func (e *Engine) lookup(id string) (entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// Provider returns the provider of the outstanding session id.
func (e *Engine) Provider(id string) (AnyProvider, bool) {
	s, ok := e.lookup(id)
	if !ok {
		return nil, false
	}
	p, _ := s.handles()
	return p, true
}

// Receiver returns the receiver of the outstanding session id.
func (e *Engine) Receiver(id string) (AnyReceiver, bool) {
	s, ok := e.lookup(id)
	if !ok {
		return nil, false
	}
	_, r := s.handles()
	return r, true
}

// ProviderOf returns the typed provider of session id. It reports false
// when no session is outstanding or its value type is not T.
func ProviderOf[T any](e *Engine, id string) (*Provider[T], bool) {
	s, ok := e.lookup(id)
	if !ok {
		return nil, false
	}
	typed, ok := s.(*state[T])
	if !ok {
		return nil, false
	}
	return typed.provider, true
}

// ReceiverOf returns the typed receiver of session id.
func ReceiverOf[T any](e *Engine, id string) (*Receiver[T], bool) {
	s, ok := e.lookup(id)
	if !ok {
		return nil, false
	}
	typed, ok := s.(*state[T])
	if !ok {
		return nil, false
	}
	return typed.receiver, true
}

// Len returns the number of outstanding sessions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// IDs returns the outstanding session IDs, sorted.
func (e *Engine) IDs() []string {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Attributes returns the continuous-session attribute scope.
func (e *Engine) Attributes() *attr.Map {
	return e.attributes
}

// Prepare snapshots the outstanding sessions and returns a function that
// offers pc to each of them. Sessions started after Prepare returns never
// see pc.
func (e *Engine) Prepare(pc *listener.ProcessingContext) func() {
	e.mu.Lock()
	snapshot := make([]entry, 0, len(e.sessions))
	for _, s := range e.sessions {
		snapshot = append(snapshot, s)
	}
	e.mu.Unlock()

	return func() {
		if len(snapshot) == 0 {
			return
		}
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		e.offers.Add(1)
		e.mu.Unlock()
		defer e.offers.Done()

		e.fanOut(pc, snapshot)
	}
}

// Offer offers pc to every outstanding session and waits for all
// selectors to return.
func (e *Engine) Offer(pc *listener.ProcessingContext) {
	e.Prepare(pc)()
}

func (e *Engine) fanOut(pc *listener.ProcessingContext, snapshot []entry) {
	var g errgroup.Group
	if e.maxConcurrent > 0 {
		g.SetLimit(e.maxConcurrent)
	}
	for _, s := range snapshot {
		s := s
		g.Go(func() error {
			s.offer(pc)
			return nil
		})
	}
	_ = g.Wait()
}

// Close cancels every outstanding session with ErrClosed and waits for
// running offers. Sessions started afterwards are cancelled immediately.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	pending := make([]entry, 0, len(e.sessions))
	for _, s := range e.sessions {
		pending = append(pending, s)
	}
	e.mu.Unlock()

	for _, s := range pending {
		s.cancel(ErrClosed)
	}
	e.offers.Wait()
	return nil
}
