package botevent

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/randalmurphal/botevent/pkg/botevent/config"
	"github.com/randalmurphal/botevent/pkg/botevent/failure"
	"github.com/randalmurphal/botevent/pkg/botevent/interceptor"
	"github.com/randalmurphal/botevent/pkg/botevent/logging"
	"github.com/randalmurphal/botevent/pkg/botevent/observability"
	"github.com/randalmurphal/botevent/pkg/botevent/session"
)

// FromConfig assembles a manager from cfg. Options are applied after the
// configured ones and can override them. The log file and failure store
// opened here are closed by Manager.Close.
func FromConfig(cfg config.Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	closers := []func() error{closeLog}

	store, err := openFailureStore(cfg.Failures)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	base := []Option{
		WithLogger(logger),
		WithProcessingInterceptors(interceptor.Logging(logger)),
		WithSessionOptions(
			session.WithDefaultTimeout(cfg.Session.DefaultTimeout.Std()),
			session.WithMaxConcurrentSelectors(cfg.Session.MaxConcurrentSelectors),
		),
	}
	if store != nil {
		base = append(base, WithFailureStore(store))
		closers = append(closers, store.Close)
	}
	if rl := cfg.Dispatch.RateLimit; rl.Enabled() {
		limiter := rate.NewLimiter(rate.Limit(rl.PerSecond), rl.Burst)
		base = append(base, WithListenerInterceptors(interceptor.RateLimit(limiter)))
	}
	if cfg.Observability.Metrics {
		base = append(base, WithMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Observability.Tracing {
		base = append(base, WithSpans(observability.NewSpanManager()))
	}

	m := New(append(base, opts...)...)
	m.closers = closers
	return m, nil
}

func openFailureStore(cfg config.FailuresConfig) (failure.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return failure.NewMemoryStore(cfg.Capacity), nil
	case config.DriverSQLite:
		store, err := failure.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open failure store: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}
