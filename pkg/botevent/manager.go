package botevent

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/botevent/pkg/botevent/attr"
	"github.com/randalmurphal/botevent/pkg/botevent/event"
	"github.com/randalmurphal/botevent/pkg/botevent/failure"
	"github.com/randalmurphal/botevent/pkg/botevent/future"
	"github.com/randalmurphal/botevent/pkg/botevent/interceptor"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
	"github.com/randalmurphal/botevent/pkg/botevent/observability"
	"github.com/randalmurphal/botevent/pkg/botevent/session"
)

// Manager owns the registered listeners and dispatches events to them.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	byID     map[string]*invoker
	ordered  []*invoker
	resolved map[string][]*invoker

	lifeMu    sync.Mutex
	closed    bool
	tasks     sync.WaitGroup
	closeOnce sync.Once

	sessions   *session.Engine
	globals    *attr.Map
	processing *interceptor.ProcessingChain

	logger                 *slog.Logger
	metrics                observability.MetricsRecorder
	spans                  observability.SpanManager
	failures               failure.Store
	exceptionHandler       ExceptionHandler
	processingInterceptors []interceptor.Processing
	listenerInterceptors   []interceptor.Listener
	sessionOpts            []session.Option
	closers                []func() error
}

// invoker is a registered listener with its prebuilt interceptor chains.
type invoker struct {
	listener listener.Listener
	chains   *interceptor.ListenerChains
}

// Handle identifies a registration.
type Handle struct {
	inv *invoker
}

// ID returns the listener ID.
func (h *Handle) ID() string { return h.inv.listener.ID() }

// Listener returns the registered listener.
func (h *Handle) Listener() listener.Listener { return h.inv.listener }

// New creates a manager with its own session engine and global scope.
func New(opts ...Option) *Manager {
	m := &Manager{
		byID:     make(map[string]*invoker),
		resolved: make(map[string][]*invoker),
		globals:  attr.NewMap(),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(m)
	}

	sessionOpts := append([]session.Option{
		session.WithLogger(m.logger),
		session.WithMetrics(m.metrics),
	}, m.sessionOpts...)
	m.sessions = session.NewEngine(sessionOpts...)
	m.processing = interceptor.NewProcessingChain(m.processingInterceptors, m.dispatch)
	return m
}

// Register adds a listener. It fails if the ID is already registered and
// invalidates every cached resolution.
func (m *Manager) Register(l listener.Listener, opts ...RegisterOption) (*Handle, error) {
	if l == nil {
		return nil, &RegistrationError{Err: ErrNilListener}
	}
	id := l.ID()
	if id == "" {
		return nil, &RegistrationError{Err: ErrEmptyListenerID}
	}

	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[id]; exists {
		return nil, &RegistrationError{ListenerID: id, Err: ErrDuplicateListener}
	}

	ics := make([]interceptor.Listener, 0, len(m.listenerInterceptors)+len(cfg.interceptors))
	ics = append(ics, m.listenerInterceptors...)
	ics = append(ics, cfg.interceptors...)

	inv := &invoker{
		listener: l,
		chains:   interceptor.NewListenerChains(ics, tagged{l}),
	}
	m.byID[id] = inv
	m.ordered = append(m.ordered, inv)
	clear(m.resolved)

	m.logger.Debug("listener registered",
		slog.String("listener_id", id),
		slog.Int("priority", l.Priority()),
		slog.Bool("async", l.IsAsync()),
	)
	return &Handle{inv: inv}, nil
}

// MustRegister registers a listener, panicking on error.
func (m *Manager) MustRegister(l listener.Listener, opts ...RegisterOption) *Handle {
	h, err := m.Register(l, opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Listeners returns the registered listeners in registration order.
func (m *Manager) Listeners() []listener.Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]listener.Listener, len(m.ordered))
	for i, inv := range m.ordered {
		out[i] = inv.listener
	}
	return out
}

// Sessions returns the manager's continuous session engine.
func (m *Manager) Sessions() *session.Engine {
	return m.sessions
}

// Globals returns the attribute scope that lives as long as the manager.
func (m *Manager) Globals() *attr.Map {
	return m.globals
}

// IsProcessable reports whether an event of key would reach any listener
// or outstanding session.
func (m *Manager) IsProcessable(key *event.Key) bool {
	if key == nil {
		return false
	}
	return len(m.resolve(key)) > 0 || m.sessions.Len() > 0
}

// resolve returns the ordered invokers targeting key: synchronous before
// asynchronous, then ascending priority, then registration order.
func (m *Manager) resolve(key *event.Key) []*invoker {
	m.mu.RLock()
	invs, ok := m.resolved[key.ID()]
	m.mu.RUnlock()
	if ok {
		return invs
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if invs, ok = m.resolved[key.ID()]; ok {
		return invs
	}

	invs = make([]*invoker, 0, len(m.ordered))
	for _, inv := range m.ordered {
		if inv.listener.IsTarget(key) {
			invs = append(invs, inv)
		}
	}
	sort.SliceStable(invs, func(i, j int) bool {
		a, b := invs[i].listener, invs[j].listener
		if a.IsAsync() != b.IsAsync() {
			return !a.IsAsync()
		}
		return a.Priority() < b.Priority()
	})
	m.resolved[key.ID()] = invs
	return invs
}

// Push dispatches ev to the listeners targeting its key and offers it to
// every outstanding session. It returns an error only if the event cannot
// be dispatched at all; listener failures are contained.
func (m *Manager) Push(ctx context.Context, ev event.Event) (*listener.ProcessingResult, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if ev == nil {
		return nil, ErrNilEvent
	}
	key := ev.Key()
	if key == nil {
		return nil, ErrNilKey
	}
	if m.isClosed() {
		return nil, ErrClosed
	}

	done := observability.TimedOperation()
	start := time.Now()
	ctx, span := m.spans.StartPushSpan(ctx, ev.ID(), key.ID())

	pc := listener.NewProcessingContext(ctx, ev,
		listener.WithLogger(m.logger),
		listener.WithGlobalScope(m.globals),
		listener.WithSessionScope(m.sessions.Attributes()),
	)
	session.Attach(pc, m.sessions)

	pending := m.sessions.Len()
	observability.LogPushStart(pc.Logger(), ev.ID(), len(m.resolve(key)), pending)
	if pending > 0 {
		m.spawn(m.sessions.Prepare(pc.Detached()))
	}

	res, err := m.processing.Run(pc)
	if err != nil {
		pc.Logger().Warn("processing interceptor failed", slog.String("error", err.Error()))
	}
	if err != nil || res == nil {
		res = pc.ProcessingResult()
	}

	m.metrics.RecordPush(ctx, key.ID(), res.Len(), time.Since(start))
	observability.LogPushComplete(pc.Logger(), ev.ID(), done(), res.Len())
	m.spans.EndSpanWithError(span, err)
	return res, nil
}

// dispatch is the terminal of the processing chain.
func (m *Manager) dispatch(pc *listener.ProcessingContext) (*listener.ProcessingResult, error) {
	for _, inv := range m.resolve(pc.Event().Key()) {
		if inv.listener.IsAsync() {
			m.launch(pc, inv)
			continue
		}
		res := m.execute(pc, inv)
		if !pc.AddResult(res) {
			continue
		}
		if res.IsTruncated() {
			break
		}
	}
	return pc.ProcessingResult(), nil
}

// launch starts an asynchronous listener and records its pending result.
func (m *Manager) launch(pc *listener.ProcessingContext, inv *invoker) {
	p := future.New[listener.Result]()
	pc.AddResult(listener.NewAsync(p))

	detached := pc.Detached()
	if !m.spawn(func() {
		_ = p.Complete(m.execute(detached, inv))
	}) {
		_ = p.Fail(ErrClosed)
	}
}

// spawn runs fn on a goroutine tracked by Close. It reports false once the
// manager is closed.
func (m *Manager) spawn(fn func()) bool {
	m.lifeMu.Lock()
	if m.closed {
		m.lifeMu.Unlock()
		return false
	}
	m.tasks.Add(1)
	m.lifeMu.Unlock()

	go func() {
		defer m.tasks.Done()
		fn()
	}()
	return true
}

// execute runs one invoker and applies the failure policy. It never
// returns nil.
func (m *Manager) execute(pc *listener.ProcessingContext, inv *invoker) listener.Result {
	l := inv.listener
	lctx := listener.NewContext(pc, l)
	_, span := m.spans.StartListenerSpan(pc, l.ID(), l.IsAsync())
	start := time.Now()

	res, err := m.guard(lctx, inv)
	m.metrics.RecordListener(pc, l.ID(), l.IsAsync(), time.Since(start), err)
	m.spans.EndSpanWithError(span, err)

	if err != nil {
		res = m.handleFailure(lctx, err)
	}
	if res == nil {
		return listener.Invalid
	}
	return res
}

// guard runs the listener chains, converting a panic into *PanicError.
func (m *Manager) guard(lctx *listener.Context, inv *invoker) (res listener.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &PanicError{ListenerID: inv.listener.ID(), Value: r, Stack: string(debug.Stack())}
		}
	}()

	res, err = inv.chains.Run(lctx)
	if err != nil {
		var le *ListenerError
		if !errors.As(err, &le) {
			err = &ListenerError{
				ListenerID: inv.listener.ID(),
				EventID:    lctx.Event().ID(),
				Op:         "intercept",
				Err:        err,
			}
		}
	}
	return res, err
}

func (m *Manager) handleFailure(lctx *listener.Context, err error) listener.Result {
	id := lctx.Listener().ID()
	m.recordFailure(lctx, err)

	if m.exceptionHandler == nil {
		observability.LogListenerError(lctx.Logger(), id, err)
		return listener.Invalid
	}

	res, herr := m.callHandler(lctx, err)
	if herr != nil {
		observability.LogListenerError(lctx.Logger(), id, errors.Join(herr, err))
		return listener.Invalid
	}
	lctx.Logger().Debug("listener failure handled",
		slog.String("listener_id", id),
		slog.String("error", err.Error()),
	)
	return res
}

func (m *Manager) callHandler(lctx *listener.Context, err error) (res listener.Result, herr error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			herr = &PanicError{ListenerID: lctx.Listener().ID(), Value: r, Stack: string(debug.Stack())}
		}
	}()
	return m.exceptionHandler(lctx, err)
}

func (m *Manager) recordFailure(lctx *listener.Context, err error) {
	if m.failures == nil {
		return
	}
	var pe *PanicError
	rec := failure.Record{
		EventID:    lctx.Event().ID(),
		EventKey:   lctx.Event().Key().ID(),
		ListenerID: lctx.Listener().ID(),
		Error:      err.Error(),
		Panicked:   errors.As(err, &pe),
	}
	if serr := m.failures.Save(context.WithoutCancel(lctx), rec); serr != nil {
		lctx.Logger().Warn("failure record not saved",
			slog.String("listener_id", rec.ListenerID),
			slog.String("error", serr.Error()),
		)
	}
}

func (m *Manager) isClosed() bool {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	return m.closed
}

// Close stops accepting events, waits for running asynchronous listeners
// and session offers, then closes the session engine. It returns
// ctx.Err() if ctx ends before the wait completes; Close may then be
// called again to finish the shutdown.
func (m *Manager) Close(ctx context.Context) error {
	m.lifeMu.Lock()
	m.closed = true
	m.lifeMu.Unlock()

	drained := make(chan struct{})
	go func() {
		m.tasks.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	m.closeOnce.Do(func() {
		errs := []error{m.sessions.Close()}
		for i := len(m.closers) - 1; i >= 0; i-- {
			errs = append(errs, m.closers[i]())
		}
		err = errors.Join(errs...)
	})
	return err
}

// tagged attributes match and invoke errors to their step.
type tagged struct {
	listener.Listener
}

func (t tagged) Match(ctx *listener.Context) (bool, error) {
	ok, err := t.Listener.Match(ctx)
	if err != nil {
		return false, &ListenerError{ListenerID: t.ID(), EventID: ctx.Event().ID(), Op: "match", Err: err}
	}
	return ok, nil
}

func (t tagged) Invoke(ctx *listener.Context) (listener.Result, error) {
	res, err := t.Listener.Invoke(ctx)
	if err != nil {
		return nil, &ListenerError{ListenerID: t.ID(), EventID: ctx.Event().ID(), Op: "invoke", Err: err}
	}
	return res, nil
}
