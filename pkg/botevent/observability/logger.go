// Package observability provides structured logging helpers, metrics and
// tracing for event dispatch and continuous sessions.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds event identity to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, ev.ID(), ev.Key().ID())
//	enriched.Info("handling") // includes event_id and event_key
func EnrichLogger(logger *slog.Logger, eventID, eventKey string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event_key", eventKey),
	)
}

// LogPushStart logs the start of an event dispatch.
func LogPushStart(logger *slog.Logger, eventID string, listeners int, sessions int) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatch starting",
		slog.String("event_id", eventID),
		slog.Int("listeners", listeners),
		slog.Int("sessions", sessions),
	)
}

// LogPushComplete logs a finished event dispatch.
func LogPushComplete(logger *slog.Logger, eventID string, durationMs float64, results int) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatch completed",
		slog.String("event_id", eventID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("results", results),
	)
}

// LogListenerError logs a contained listener failure.
func LogListenerError(logger *slog.Logger, listenerID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("listener failed",
		slog.String("listener_id", listenerID),
		slog.String("error", err.Error()),
	)
}

// LogSessionStart logs a newly registered continuous session.
func LogSessionStart(logger *slog.Logger, sessionID string, timeout time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("session waiting",
		slog.String("session_id", sessionID),
		slog.Duration("timeout", timeout),
	)
}

// LogSessionResolved logs the terminal outcome of a continuous session.
func LogSessionResolved(logger *slog.Logger, sessionID string, outcome string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("session resolved",
		slog.String("session_id", sessionID),
		slog.String("outcome", outcome),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSelectorError logs a selector failure that was routed to its session.
func LogSelectorError(logger *slog.Logger, sessionID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("session selector failed",
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
