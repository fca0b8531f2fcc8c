package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Failure store drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the complete manager configuration.
type Config struct {
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Session       SessionConfig       `yaml:"session" json:"session"`
	Dispatch      DispatchConfig      `yaml:"dispatch" json:"dispatch"`
	Failures      FailuresConfig      `yaml:"failures" json:"failures"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Listeners holds free-form per-listener settings keyed by listener ID.
	Listeners map[string]Values `yaml:"listeners" json:"listeners"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`

	// File enables rotating file output instead of stdout.
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// SessionConfig configures the continuous session engine.
type SessionConfig struct {
	DefaultTimeout         Duration `yaml:"default_timeout" json:"default_timeout"`
	MaxConcurrentSelectors int      `yaml:"max_concurrent_selectors" json:"max_concurrent_selectors"`
}

// DispatchConfig configures listener dispatch.
type DispatchConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig configures a token bucket shared by all listeners.
// A zero PerSecond disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" json:"per_second"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// Enabled reports whether rate limiting is configured.
func (r RateLimitConfig) Enabled() bool {
	return r.PerSecond > 0
}

// FailuresConfig selects where listener failures are recorded.
type FailuresConfig struct {
	Driver   string `yaml:"driver" json:"driver"`
	Path     string `yaml:"path" json:"path"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}

// ObservabilityConfig toggles OpenTelemetry instrumentation.
type ObservabilityConfig struct {
	Metrics bool `yaml:"metrics" json:"metrics"`
	Tracing bool `yaml:"tracing" json:"tracing"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Session: SessionConfig{
			MaxConcurrentSelectors: 0,
		},
		Failures: FailuresConfig{
			Driver:   DriverNone,
			Capacity: 1000,
		},
	}
}

// Listener returns the settings of one listener. Missing sections yield
// empty Values, so accessors fall back to their defaults.
func (c Config) Listener(id string) Values {
	return c.Listeners[id]
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		errs = append(errs, errors.New("logging: rotation limits must not be negative"))
	}

	if c.Session.DefaultTimeout < 0 {
		errs = append(errs, errors.New("session.default_timeout: must not be negative"))
	}
	if c.Session.MaxConcurrentSelectors < 0 {
		errs = append(errs, errors.New("session.max_concurrent_selectors: must not be negative"))
	}

	rl := c.Dispatch.RateLimit
	if rl.PerSecond < 0 {
		errs = append(errs, errors.New("dispatch.rate_limit.per_second: must not be negative"))
	}
	if rl.Enabled() && rl.Burst < 1 {
		errs = append(errs, errors.New("dispatch.rate_limit.burst: must be at least 1 when rate limiting"))
	}

	switch c.Failures.Driver {
	case "", DriverNone, DriverMemory:
	case DriverSQLite:
		if c.Failures.Path == "" {
			errs = append(errs, errors.New("failures.path: required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("failures.driver: unknown driver %q", c.Failures.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Duration is a time.Duration that decodes from "30s" or from a number of
// seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
