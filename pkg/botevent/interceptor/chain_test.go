package interceptor_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/randalmurphal/botevent/pkg/botevent/event"
	"github.com/randalmurphal/botevent/pkg/botevent/filter"
	"github.com/randalmurphal/botevent/pkg/botevent/interceptor"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

type step struct {
	name     string
	priority int
	trace    *[]string
	skip     bool
}

func (s *step) Priority() int { return s.priority }

func (s *step) Intercept(inv *interceptor.Invocation[string, string]) (string, error) {
	*s.trace = append(*s.trace, s.name+">")
	if s.skip {
		return "short:" + s.name, nil
	}
	out, err := inv.Proceed()
	*s.trace = append(*s.trace, "<"+s.name)
	return out, err
}

func TestChain_OrderAndNesting(t *testing.T) {
	var trace []string
	chain := interceptor.NewChain([]interceptor.Interceptor[string, string]{
		&step{name: "b", priority: 2, trace: &trace},
		&step{name: "a", priority: 1, trace: &trace},
		&step{name: "c", priority: 2, trace: &trace},
	}, func(in string) (string, error) {
		trace = append(trace, "terminal")
		return in + "!", nil
	})

	out, err := chain.Run("go")
	require.NoError(t, err)
	assert.Equal(t, "go!", out)
	assert.Equal(t, []string{"a>", "b>", "c>", "terminal", "<c", "<b", "<a"}, trace)
	assert.Equal(t, 3, chain.Len())
}

func TestChain_ShortCircuit(t *testing.T) {
	var trace []string
	called := false
	chain := interceptor.NewChain([]interceptor.Interceptor[string, string]{
		&step{name: "a", priority: 0, trace: &trace},
		&step{name: "stop", priority: 1, trace: &trace, skip: true},
	}, func(string) (string, error) {
		called = true
		return "", nil
	})

	out, err := chain.Run("x")
	require.NoError(t, err)
	assert.Equal(t, "short:stop", out)
	assert.False(t, called)
	assert.Equal(t, []string{"a>", "stop>", "<a"}, trace)
}

func TestChain_Empty(t *testing.T) {
	boom := errors.New("boom")
	chain := interceptor.NewChain(nil, func(string) (string, error) { return "", boom })

	_, err := chain.Run("x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, chain.Len())
}

func newContext(l listener.Listener, text string) *listener.Context {
	msg := event.NewMessage(event.ContactMessageKey, "", "alice", text)
	pc := listener.NewProcessingContext(context.Background(), msg)
	return listener.NewContext(pc, l)
}

func TestListenerChains_Points(t *testing.T) {
	var trace []string
	invoked := 0
	l := listener.New("l", func(*listener.Context) (listener.Result, error) {
		invoked++
		trace = append(trace, "invoke")
		return listener.Of("ok"), nil
	}, listener.WithMatcher(filter.TextEquals("hit")))

	record := func(point interceptor.Point, name string) interceptor.Listener {
		return interceptor.ListenerFunc(point, 0, func(inv *interceptor.ListenerInvocation) (listener.Result, error) {
			trace = append(trace, name)
			return inv.Proceed()
		})
	}
	chains := interceptor.NewListenerChains([]interceptor.Listener{
		record(interceptor.PointAfterMatch, "after"),
		record(interceptor.PointDefault, "default"),
	}, l)

	def, after := chains.Len()
	assert.Equal(t, 1, def)
	assert.Equal(t, 1, after)

	res, err := chains.Run(newContext(l, "hit"))
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content())
	assert.Equal(t, []string{"default", "after", "invoke"}, trace)

	trace = nil
	res, err = chains.Run(newContext(l, "miss"))
	require.NoError(t, err)
	assert.True(t, listener.IsInvalid(res))
	assert.Equal(t, []string{"default"}, trace, "after-match chain skipped on a failed match")
	assert.Equal(t, 1, invoked)
}

func TestListenerChains_DefaultCanSkipMatch(t *testing.T) {
	matched := false
	l := listener.New("l", nil, listener.WithMatcher(func(*listener.Context) (bool, error) {
		matched = true
		return true, nil
	}))
	deny := interceptor.ListenerFunc(interceptor.PointDefault, 0, func(*interceptor.ListenerInvocation) (listener.Result, error) {
		return listener.Truncated("denied"), nil
	})

	res, err := interceptor.NewListenerChains([]interceptor.Listener{deny}, l).Run(newContext(l, "x"))
	require.NoError(t, err)
	assert.True(t, res.IsTruncated())
	assert.False(t, matched)
}

func TestListenerChains_MatchError(t *testing.T) {
	boom := errors.New("boom")
	l := listener.New("l", nil, listener.WithMatcher(func(*listener.Context) (bool, error) {
		return false, boom
	}))

	_, err := interceptor.NewListenerChains(nil, l).Run(newContext(l, "x"))
	assert.ErrorIs(t, err, boom)
}

func TestWhen(t *testing.T) {
	l := listener.New("l", func(*listener.Context) (listener.Result, error) {
		return listener.Of("invoked"), nil
	})
	block := interceptor.When(filter.TextPrefix("!"),
		interceptor.ListenerFunc(interceptor.PointAfterMatch, 3, func(*interceptor.ListenerInvocation) (listener.Result, error) {
			return listener.Invalid, nil
		}))
	assert.Equal(t, interceptor.PointAfterMatch, block.Point())
	assert.Equal(t, 3, block.Priority())

	chains := interceptor.NewListenerChains([]interceptor.Listener{block}, l)

	res, err := chains.Run(newContext(l, "!blocked"))
	require.NoError(t, err)
	assert.True(t, listener.IsInvalid(res))

	res, err = chains.Run(newContext(l, "fine"))
	require.NoError(t, err)
	assert.Equal(t, "invoked", res.Content())
}

func TestRateLimit(t *testing.T) {
	l := listener.New("l", func(*listener.Context) (listener.Result, error) {
		return listener.Of(1), nil
	})
	chains := interceptor.NewListenerChains([]interceptor.Listener{
		interceptor.RateLimit(rate.NewLimiter(0, 1)),
	}, l)

	res, err := chains.Run(newContext(l, "a"))
	require.NoError(t, err)
	assert.False(t, listener.IsInvalid(res))

	res, err = chains.Run(newContext(l, "b"))
	require.NoError(t, err)
	assert.True(t, listener.IsInvalid(res), "bucket exhausted")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	msg := event.NewMessage(event.ContactMessageKey, "", "alice", "x")
	pc := listener.NewProcessingContext(context.Background(), msg)

	chain := interceptor.NewProcessingChain([]interceptor.Processing{interceptor.Logging(logger)},
		func(pc *listener.ProcessingContext) (*listener.ProcessingResult, error) {
			pc.AddResult(listener.Of("r"))
			return pc.ProcessingResult(), nil
		})

	res, err := chain.Run(pc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
	assert.Contains(t, buf.String(), "event processed")
	assert.Contains(t, buf.String(), "results=1")
	assert.Contains(t, buf.String(), msg.ID())
}

func TestPoint_String(t *testing.T) {
	assert.Equal(t, "default", interceptor.PointDefault.String())
	assert.Equal(t, "after_match", interceptor.PointAfterMatch.String())
	assert.Equal(t, "unknown", interceptor.Point(9).String())
}
