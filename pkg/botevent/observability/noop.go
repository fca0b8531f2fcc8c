package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordPush does nothing.
func (NoopMetrics) RecordPush(context.Context, string, int, time.Duration) {}

// RecordListener does nothing.
func (NoopMetrics) RecordListener(context.Context, string, bool, time.Duration, error) {}

// RecordSessionStart does nothing.
func (NoopMetrics) RecordSessionStart(context.Context) {}

// RecordSessionEnd does nothing.
func (NoopMetrics) RecordSessionEnd(context.Context, string, time.Duration) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartPushSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartPushSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartListenerSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartListenerSpan(ctx context.Context, _ string, _ bool) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
