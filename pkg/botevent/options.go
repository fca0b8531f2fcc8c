package botevent

import (
	"log/slog"

	"github.com/randalmurphal/botevent/pkg/botevent/failure"
	"github.com/randalmurphal/botevent/pkg/botevent/interceptor"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
	"github.com/randalmurphal/botevent/pkg/botevent/observability"
	"github.com/randalmurphal/botevent/pkg/botevent/session"
)

// ExceptionHandler turns a contained listener failure into a substitute
// result. Returning an error leaves the listener with an invalid result;
// the original failure is joined to the returned error and logged.
type ExceptionHandler func(ctx *listener.Context, err error) (listener.Result, error)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithExceptionHandler installs a handler for listener failures.
//
// Example:
//
//	mgr := botevent.New(botevent.WithExceptionHandler(
//	    func(ctx *listener.Context, err error) (listener.Result, error) {
//	        return listener.Of("something went wrong"), nil
//	    }))
func WithExceptionHandler(h ExceptionHandler) Option {
	return func(m *Manager) {
		m.exceptionHandler = h
	}
}

// WithFailureStore records every listener failure in s.
// The manager does not close the store.
func WithFailureStore(s failure.Store) Option {
	return func(m *Manager) {
		m.failures = s
	}
}

// WithMetrics sets the metrics recorder. Default: observability.NoopMetrics.
func WithMetrics(r observability.MetricsRecorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.metrics = r
		}
	}
}

// WithSpans sets the span manager. Default: observability.NoopSpanManager.
func WithSpans(s observability.SpanManager) Option {
	return func(m *Manager) {
		if s != nil {
			m.spans = s
		}
	}
}

// WithProcessingInterceptors adds whole-flow interceptors.
func WithProcessingInterceptors(ics ...interceptor.Processing) Option {
	return func(m *Manager) {
		m.processingInterceptors = append(m.processingInterceptors, ics...)
	}
}

// WithListenerInterceptors adds interceptors applied to every listener
// registered afterwards.
func WithListenerInterceptors(ics ...interceptor.Listener) Option {
	return func(m *Manager) {
		m.listenerInterceptors = append(m.listenerInterceptors, ics...)
	}
}

// WithSessionOptions configures the session engine the manager creates.
func WithSessionOptions(opts ...session.Option) Option {
	return func(m *Manager) {
		m.sessionOpts = append(m.sessionOpts, opts...)
	}
}

// RegisterOption configures one registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	interceptors []interceptor.Listener
}

// Intercept adds interceptors for this listener only. They are merged with
// the manager-wide listener interceptors and ordered by priority.
func Intercept(ics ...interceptor.Listener) RegisterOption {
	return func(c *registerConfig) {
		c.interceptors = append(c.interceptors, ics...)
	}
}
