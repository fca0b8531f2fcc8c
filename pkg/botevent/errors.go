package botevent

import (
	"errors"
	"fmt"
)

// Sentinel errors for registration.
var (
	// ErrNilListener indicates Register was called with a nil listener.
	ErrNilListener = errors.New("listener cannot be nil")

	// ErrEmptyListenerID indicates a listener returned an empty ID.
	ErrEmptyListenerID = errors.New("listener ID cannot be empty")

	// ErrDuplicateListener indicates a listener with the same ID exists.
	ErrDuplicateListener = errors.New("listener already registered")
)

// Sentinel errors for dispatch.
var (
	// ErrNilContext indicates Push was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilEvent indicates Push was called with a nil event.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrNilKey indicates an event without a key.
	ErrNilKey = errors.New("event key cannot be nil")

	// ErrClosed indicates the manager has been closed.
	ErrClosed = errors.New("manager closed")
)

// RegistrationError wraps a failed Register call.
type RegistrationError struct {
	// ListenerID is the ID of the rejected listener, if it had one.
	ListenerID string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register listener %q: %v", e.ListenerID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// ListenerError wraps an error returned while executing a listener.
type ListenerError struct {
	// ListenerID is the listener that failed.
	ListenerID string
	// EventID is the event being handled.
	EventID string
	// Op is the failing step ("match", "invoke" or "intercept").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s: %s event %s: %v", e.ListenerID, e.Op, e.EventID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised while executing a listener.
// It includes the stack trace for debugging.
type PanicError struct {
	// ListenerID is the listener that panicked.
	ListenerID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener %s panicked: %v", e.ListenerID, e.Value)
}
