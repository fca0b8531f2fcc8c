package botevent_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/randalmurphal/botevent/pkg/botevent"
	"github.com/randalmurphal/botevent/pkg/botevent/config"
	"github.com/randalmurphal/botevent/pkg/botevent/failure"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
	"github.com/randalmurphal/botevent/pkg/botevent/observability"
)

func TestFromConfig_SQLiteFailuresAndRateLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.db")

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Failures.Driver = config.DriverSQLite
	cfg.Failures.Path = path
	cfg.Dispatch.RateLimit.PerSecond = 0.001
	cfg.Dispatch.RateLimit.Burst = 2

	m, err := botevent.FromConfig(cfg)
	require.NoError(t, err)

	m.MustRegister(listener.New("broken", func(*listener.Context) (listener.Result, error) {
		return nil, errors.New("downstream unavailable")
	}))

	for i := 0; i < 3; i++ {
		_, err := m.Push(context.Background(), message("x"))
		require.NoError(t, err)
	}
	require.NoError(t, m.Close(context.Background()))

	store, err := failure.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "third execution is rate limited before it can fail")

	recs, err := store.List(context.Background(), "broken", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Error, "downstream unavailable")
}

func TestFromConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Failures.Driver = "postgres"

	_, err := botevent.FromConfig(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestFromConfig_OptionsOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	store := failure.NewMemoryStore(10)

	m, err := botevent.FromConfig(cfg, botevent.WithFailureStore(store))
	require.NoError(t, err)
	m.MustRegister(listener.New("p", func(*listener.Context) (listener.Result, error) {
		panic("boom")
	}))

	_, err = m.Push(context.Background(), message("x"))
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background()))

	recs, err := store.List(context.Background(), "p", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Panicked)
}

func TestManager_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec, err := observability.NewMetricsRecorderFor(provider)
	require.NoError(t, err)

	m := newManager(t, botevent.WithMetrics(rec))
	m.MustRegister(listener.New("ok", returning(1)))
	m.MustRegister(listener.New("bad", func(*listener.Context) (listener.Result, error) {
		return nil, errors.New("nope")
	}))

	for i := 0; i < 2; i++ {
		_, err := m.Push(context.Background(), message("x"))
		require.NoError(t, err)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[metric.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["botevent.push.count"])
	assert.Equal(t, int64(4), sums["botevent.listener.executions"])
	assert.Equal(t, int64(2), sums["botevent.listener.errors"])
}

func TestManager_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m := newManager(t, botevent.WithSpans(observability.NewSpanManager()))
	m.MustRegister(listener.New("traced", returning(1)))

	_, err := m.Push(context.Background(), message("x"))
	require.NoError(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"botevent.push", "botevent.listener.traced"}, names)
}
