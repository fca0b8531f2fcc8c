// Package future provides a single-resolution promise.
//
// A Promise has exactly one writer outcome (a value, an error or a
// cancellation) and any number of readers. The first resolution wins;
// later Complete or Fail calls report ErrAlreadyCompleted while later
// Cancel calls are no-ops.
package future

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyCompleted is returned when resolving a promise a second time.
var ErrAlreadyCompleted = errors.New("promise already completed")

// ErrCancelled is the default cancellation error.
var ErrCancelled = errors.New("promise cancelled")

// State represents the resolution state of a promise.
type State int

// Promise states.
const (
	StatePending State = iota
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Promise is a write-once, read-many result holder.
type Promise[T any] struct {
	mu        sync.Mutex
	state     State
	value     T
	err       error
	done      chan struct{}
	callbacks []func()
}

// New creates a pending promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Complete resolves the promise with a value.
func (p *Promise[T]) Complete(v T) error {
	return p.resolve(StateCompleted, v, nil)
}

// Fail resolves the promise with an error. A nil error is replaced by
// ErrCancelled so that Await never returns a zero value with a nil error
// for a failed promise.
func (p *Promise[T]) Fail(err error) error {
	if err == nil {
		err = ErrCancelled
	}
	var zero T
	return p.resolve(StateFailed, zero, err)
}

// Cancel resolves the promise as cancelled with err as the reported error.
// It returns false if the promise was already resolved.
func (p *Promise[T]) Cancel(err error) bool {
	if err == nil {
		err = ErrCancelled
	}
	var zero T
	return p.resolve(StateCancelled, zero, err) == nil
}

func (p *Promise[T]) resolve(state State, v T, err error) error {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		return ErrAlreadyCompleted
	}
	p.state = state
	p.value = v
	p.err = err
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// OnComplete registers fn to run once the promise resolves. If it is
// already resolved, fn runs immediately on the calling goroutine; otherwise
// it runs on the goroutine that resolves the promise.
func (p *Promise[T]) OnComplete(fn func()) {
	p.mu.Lock()
	if p.state == StatePending {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	fn()
}

// Await blocks until the promise resolves or ctx is done.
// Context expiry abandons the wait; it does not cancel the promise.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the resolved value and error without blocking.
// For a pending promise it returns the zero value and a nil error.
func (p *Promise[T]) Result() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// Done returns a channel closed when the promise resolves.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// IsDone reports whether the promise has resolved.
func (p *Promise[T]) IsDone() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// State returns the current state.
func (p *Promise[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
