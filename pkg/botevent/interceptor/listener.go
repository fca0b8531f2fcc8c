package interceptor

import (
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

// Point selects which part of a listener's execution an interceptor wraps.
type Point int

// Interception points.
const (
	// PointDefault wraps the match check and, when it passes, the invocation.
	PointDefault Point = iota

	// PointAfterMatch wraps only the invocation of a matched listener.
	PointAfterMatch
)

// String returns the point name.
func (p Point) String() string {
	switch p {
	case PointDefault:
		return "default"
	case PointAfterMatch:
		return "after_match"
	default:
		return "unknown"
	}
}

// ListenerInvocation is the chain view of a listener interceptor.
type ListenerInvocation = Invocation[*listener.Context, listener.Result]

// Listener intercepts one listener's execution.
type Listener interface {
	Interceptor[*listener.Context, listener.Result]

	// Point selects the sub-chain this interceptor belongs to.
	Point() Point
}

// ListenerFunc adapts a function to a Listener interceptor.
func ListenerFunc(point Point, priority int, fn func(inv *ListenerInvocation) (listener.Result, error)) Listener {
	return &listenerFunc{point: point, priority: priority, fn: fn}
}

type listenerFunc struct {
	point    Point
	priority int
	fn       func(inv *ListenerInvocation) (listener.Result, error)
}

func (l *listenerFunc) Point() Point  { return l.point }
func (l *listenerFunc) Priority() int { return l.priority }

func (l *listenerFunc) Intercept(inv *ListenerInvocation) (listener.Result, error) {
	return l.fn(inv)
}

// When applies ic only to executions where m matches; otherwise the chain
// proceeds untouched.
func When(m listener.MatchFunc, ic Listener) Listener {
	return &conditional{matcher: m, inner: ic}
}

type conditional struct {
	matcher listener.MatchFunc
	inner   Listener
}

func (c *conditional) Point() Point  { return c.inner.Point() }
func (c *conditional) Priority() int { return c.inner.Priority() }

func (c *conditional) Intercept(inv *ListenerInvocation) (listener.Result, error) {
	ok, err := c.matcher(inv.Context())
	if err != nil {
		return nil, err
	}
	if !ok {
		return inv.Proceed()
	}
	return c.inner.Intercept(inv)
}

// ListenerChains holds the two independently built sub-chains of one
// listener.
type ListenerChains struct {
	def   *Chain[*listener.Context, listener.Result]
	after *Chain[*listener.Context, listener.Result]
}

// NewListenerChains builds the DEFAULT and AFTER_MATCH chains for l.
// The DEFAULT terminal runs l.Match; a failed match yields listener.Invalid
// without entering the AFTER_MATCH chain, whose terminal is l.Invoke.
func NewListenerChains(interceptors []Listener, l listener.Listener) *ListenerChains {
	var def, after []Interceptor[*listener.Context, listener.Result]
	for _, ic := range interceptors {
		if ic.Point() == PointAfterMatch {
			after = append(after, ic)
		} else {
			def = append(def, ic)
		}
	}

	c := &ListenerChains{}
	c.after = NewChain(after, l.Invoke)
	c.def = NewChain(def, func(ctx *listener.Context) (listener.Result, error) {
		ok, err := l.Match(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return listener.Invalid, nil
		}
		return c.after.Run(ctx)
	})
	return c
}

// Run executes the listener through both chains.
func (c *ListenerChains) Run(ctx *listener.Context) (listener.Result, error) {
	return c.def.Run(ctx)
}

// Len returns the number of DEFAULT and AFTER_MATCH interceptors.
func (c *ListenerChains) Len() (def, afterMatch int) {
	return c.def.Len(), c.after.Len()
}
