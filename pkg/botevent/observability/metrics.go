package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Session outcomes reported to RecordSessionEnd.
const (
	OutcomeResolved  = "resolved"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeReplaced  = "replaced"
)

// MetricsRecorder records dispatch and session metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPush records one dispatched event.
	RecordPush(ctx context.Context, eventKey string, results int, duration time.Duration)

	// RecordListener records one listener execution with its error status.
	RecordListener(ctx context.Context, listenerID string, async bool, duration time.Duration, err error)

	// RecordSessionStart records a newly registered session.
	RecordSessionStart(ctx context.Context)

	// RecordSessionEnd records the terminal outcome of a session.
	RecordSessionEnd(ctx context.Context, outcome string, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	pushes           metric.Int64Counter
	pushLatency      metric.Float64Histogram
	pushResults      metric.Int64Histogram
	listenerRuns     metric.Int64Counter
	listenerLatency  metric.Float64Histogram
	listenerErrors   metric.Int64Counter
	sessionsActive   metric.Int64UpDownCounter
	sessionsResolved metric.Int64Counter
	sessionLatency   metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("botevent"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	m := &otelMetrics{}
	var err error

	if m.pushes, err = meter.Int64Counter("botevent.push.count",
		metric.WithDescription("Number of dispatched events"),
	); err != nil {
		return nil, err
	}
	if m.pushLatency, err = meter.Float64Histogram("botevent.push.latency_ms",
		metric.WithDescription("Synchronous dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.pushResults, err = meter.Int64Histogram("botevent.push.results",
		metric.WithDescription("Results gathered per dispatched event"),
	); err != nil {
		return nil, err
	}
	if m.listenerRuns, err = meter.Int64Counter("botevent.listener.executions",
		metric.WithDescription("Number of listener executions"),
	); err != nil {
		return nil, err
	}
	if m.listenerLatency, err = meter.Float64Histogram("botevent.listener.latency_ms",
		metric.WithDescription("Listener execution latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.listenerErrors, err = meter.Int64Counter("botevent.listener.errors",
		metric.WithDescription("Number of failed listener executions"),
	); err != nil {
		return nil, err
	}
	if m.sessionsActive, err = meter.Int64UpDownCounter("botevent.session.active",
		metric.WithDescription("Outstanding continuous sessions"),
	); err != nil {
		return nil, err
	}
	if m.sessionsResolved, err = meter.Int64Counter("botevent.session.resolved",
		metric.WithDescription("Continuous sessions resolved, by outcome"),
	); err != nil {
		return nil, err
	}
	if m.sessionLatency, err = meter.Float64Histogram("botevent.session.latency_ms",
		metric.WithDescription("Time from session start to resolution in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFor returns a recorder bound to a specific provider.
func NewMetricsRecorderFor(provider metric.MeterProvider) (MetricsRecorder, error) {
	return newOtelMetrics(provider.Meter("botevent"))
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (m *otelMetrics) RecordPush(ctx context.Context, eventKey string, results int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("event_key", eventKey))
	m.pushes.Add(ctx, 1, attrs)
	m.pushLatency.Record(ctx, ms(duration), attrs)
	m.pushResults.Record(ctx, int64(results), attrs)
}

func (m *otelMetrics) RecordListener(ctx context.Context, listenerID string, async bool, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("listener_id", listenerID),
		attribute.Bool("async", async),
	)
	m.listenerRuns.Add(ctx, 1, attrs)
	m.listenerLatency.Record(ctx, ms(duration), attrs)
	if err != nil {
		m.listenerErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordSessionStart(ctx context.Context) {
	m.sessionsActive.Add(ctx, 1)
}

func (m *otelMetrics) RecordSessionEnd(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.sessionsActive.Add(ctx, -1)
	m.sessionsResolved.Add(ctx, 1, attrs)
	m.sessionLatency.Record(ctx, ms(duration), attrs)
}
