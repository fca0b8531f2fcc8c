package session

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for session outcomes and misuse.
var (
	// ErrTimeout is reported when a session's timeout elapses first.
	ErrTimeout = errors.New("session timed out")

	// ErrCancelled is reported when a session was cancelled.
	ErrCancelled = errors.New("session cancelled")

	// ErrReplaced is the cancellation cause of a session evicted by a newer
	// session registered under the same ID.
	ErrReplaced = errors.New("session replaced")

	// ErrCompleted is returned when resolving a session a second time.
	ErrCompleted = errors.New("session already completed")

	// ErrClosed is the cancellation cause of sessions ended by Engine.Close.
	ErrClosed = errors.New("session engine closed")
)

// TimeoutError is pushed into a session when its timeout elapses.
type TimeoutError struct {
	ID      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session %q timed out after %s", e.ID, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// CancelledError is the error a receiver observes for a cancelled session.
// It matches both ErrCancelled and its Cause.
type CancelledError struct {
	ID    string
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("session %q cancelled", e.ID)
	}
	return fmt.Sprintf("session %q cancelled: %v", e.ID, e.Cause)
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrCancelled.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

// StateError reports an operation on a session that already completed.
type StateError struct {
	ID  string
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session %q: %s: %v", e.ID, e.Op, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// PanicError is pushed into a session whose selector panicked.
type PanicError struct {
	ID    string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("session %q: selector panicked: %v", e.ID, e.Value)
}
