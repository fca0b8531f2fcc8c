package interceptor

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

// LoggingPriority places the logging interceptor outermost.
const LoggingPriority = -1 << 20

// Logging logs every dispatched event with its duration and result count.
func Logging(logger *slog.Logger) Processing {
	if logger == nil {
		logger = slog.Default()
	}
	return ProcessingFunc(LoggingPriority, func(inv *ProcessingInvocation) (*listener.ProcessingResult, error) {
		start := time.Now()
		res, err := inv.Proceed()

		attrs := []any{
			"event_id", inv.Context().Event().ID(),
			"event_key", inv.Context().Event().Key().ID(),
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
		}
		if res != nil {
			attrs = append(attrs, "results", res.Len())
		}
		if err != nil {
			logger.Warn("event processing failed", append(attrs, "error", err)...)
		} else {
			logger.Debug("event processed", attrs...)
		}
		return res, err
	})
}

// RateLimit throttles listener executions with a token bucket shared by
// every listener it is attached to. A denied execution yields
// listener.Invalid without running the match.
func RateLimit(limiter *rate.Limiter) Listener {
	return ListenerFunc(PointDefault, 0, func(inv *ListenerInvocation) (listener.Result, error) {
		if !limiter.Allow() {
			inv.Context().Logger().Debug("listener rate limited",
				"listener_id", inv.Context().Listener().ID())
			return listener.Invalid, nil
		}
		return inv.Proceed()
	})
}
