package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/botevent/pkg/botevent/future"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
	"github.com/randalmurphal/botevent/pkg/botevent/observability"
)

// Selector inspects one dispatched event on behalf of a session. It is
// called once per event until the session resolves, and resolves it by
// calling p.Push or p.PushError. A returned error or a panic is pushed into
// the session's receiver.
type Selector[T any] func(pc *listener.ProcessingContext, p *Provider[T]) error

// AnyProvider is the untyped view of a Provider.
type AnyProvider interface {
	ID() string
	PushError(err error) error
	Cancel(cause error) bool
	Done() <-chan struct{}
}

// AnyReceiver is the untyped view of a Receiver.
type AnyReceiver interface {
	ID() string
	AwaitAny(ctx context.Context) (any, error)
	Cancel(cause error) bool
	Done() <-chan struct{}
}

// entry is the engine's type-erased handle on a session.
type entry interface {
	sessionID() string
	offer(pc *listener.ProcessingContext)
	cancel(cause error) bool
	handles() (AnyProvider, AnyReceiver)
}

type state[T any] struct {
	id       string
	engine   *Engine
	selector Selector[T]
	promise  *future.Promise[T]
	started  time.Time

	completed atomic.Bool

	mu    sync.Mutex
	timer *time.Timer

	provider *Provider[T]
	receiver *Receiver[T]
}

func newState[T any](e *Engine, id string, selector Selector[T]) *state[T] {
	s := &state[T]{
		id:       id,
		engine:   e,
		selector: selector,
		promise:  future.New[T](),
		started:  time.Now(),
	}
	s.provider = &Provider[T]{s: s}
	s.receiver = &Receiver[T]{s: s}
	return s
}

func (s *state[T]) sessionID() string { return s.id }

func (s *state[T]) handles() (AnyProvider, AnyReceiver) {
	return s.provider, s.receiver
}

func (s *state[T]) startTimer(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed.Load() {
		return
	}
	s.timer = time.AfterFunc(d, func() {
		_ = s.provider.PushError(&TimeoutError{ID: s.id, Timeout: d})
	})
}

// finish claims the single resolution of the session. The session is
// evicted and its timer stopped before resolve runs, so a woken receiver
// never finds it still registered.
func (s *state[T]) finish(outcome string, resolve func()) bool {
	if !s.completed.CompareAndSwap(false, true) {
		return false
	}

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.engine.evict(s.id, s)
	resolve()

	elapsed := time.Since(s.started)
	s.engine.metrics.RecordSessionEnd(context.Background(), outcome, elapsed)
	observability.LogSessionResolved(s.engine.logger, s.id, outcome, float64(elapsed.Microseconds())/1000)
	return true
}

func (s *state[T]) cancel(cause error) bool {
	outcome := observability.OutcomeCancelled
	if errors.Is(cause, ErrReplaced) {
		outcome = observability.OutcomeReplaced
	}
	return s.finish(outcome, func() {
		s.promise.Cancel(&CancelledError{ID: s.id, Cause: cause})
	})
}

func (s *state[T]) offer(pc *listener.ProcessingContext) {
	if s.selector == nil || s.completed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := &PanicError{ID: s.id, Value: r}
			observability.LogSelectorError(s.engine.logger, s.id, err)
			_ = s.provider.PushError(err)
		}
	}()
	if err := s.selector(pc, s.provider); err != nil {
		observability.LogSelectorError(s.engine.logger, s.id, err)
		_ = s.provider.PushError(err)
	}
}

// Provider is the write-once half of a session.
type Provider[T any] struct {
	s *state[T]
}

// ID returns the session ID.
func (p *Provider[T]) ID() string { return p.s.id }

// Push resolves the session with v. It returns a *StateError wrapping
// ErrCompleted if the session already completed.
func (p *Provider[T]) Push(v T) error {
	ok := p.s.finish(observability.OutcomeResolved, func() {
		_ = p.s.promise.Complete(v)
	})
	if !ok {
		return &StateError{ID: p.s.id, Op: "push", Err: ErrCompleted}
	}
	return nil
}

// PushError resolves the session with err. It returns a *StateError
// wrapping ErrCompleted if the session already completed.
func (p *Provider[T]) PushError(err error) error {
	outcome := observability.OutcomeFailed
	if errors.Is(err, ErrTimeout) {
		outcome = observability.OutcomeTimeout
	}
	ok := p.s.finish(outcome, func() {
		_ = p.s.promise.Fail(err)
	})
	if !ok {
		return &StateError{ID: p.s.id, Op: "push error", Err: ErrCompleted}
	}
	return nil
}

// Cancel cancels the session with cause. It is a no-op returning false if
// the session already completed.
func (p *Provider[T]) Cancel(cause error) bool {
	return p.s.cancel(cause)
}

// Done returns a channel closed when the session resolves.
func (p *Provider[T]) Done() <-chan struct{} { return p.s.promise.Done() }

// IsDone reports whether the session has resolved.
func (p *Provider[T]) IsDone() bool { return p.s.completed.Load() }

// Receiver is the await half of a session.
type Receiver[T any] struct {
	s *state[T]
}

// ID returns the session ID.
func (r *Receiver[T]) ID() string { return r.s.id }

// Await blocks until the session resolves or ctx is done. Context expiry
// abandons the wait without cancelling the session.
func (r *Receiver[T]) Await(ctx context.Context) (T, error) {
	return r.s.promise.Await(ctx)
}

// AwaitAny is Await without the type parameter.
func (r *Receiver[T]) AwaitAny(ctx context.Context) (any, error) {
	return r.Await(ctx)
}

// Cancel cancels the session; the provider observes it as completed.
// It is a no-op returning false if the session already completed.
func (r *Receiver[T]) Cancel(cause error) bool {
	return r.s.cancel(cause)
}

// Done returns a channel closed when the session resolves.
func (r *Receiver[T]) Done() <-chan struct{} { return r.s.promise.Done() }
