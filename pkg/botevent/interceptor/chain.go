// Package interceptor provides proceed-or-short-circuit interceptor chains.
//
// Two chain kinds exist. A Processing interceptor wraps the whole dispatch
// of one event. A Listener interceptor wraps one listener at one of two
// points: PointDefault wraps the match check and everything after it,
// PointAfterMatch wraps only the invocation. Chains are built once and run
// many times; a chain with no interceptors is a direct call.
package interceptor

import (
	"sort"

	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

// Interceptor is one step of a chain over context C producing R.
type Interceptor[C, R any] interface {
	// Priority orders interceptors; lower values run first (outermost).
	Priority() int

	// Intercept either calls inv.Proceed() to continue the chain or returns
	// its own value to short-circuit it.
	Intercept(inv *Invocation[C, R]) (R, error)
}

// Invocation is the view an interceptor has of the chain.
type Invocation[C, R any] struct {
	ctx   C
	chain *Chain[C, R]
	index int
}

// Context returns the context flowing through the chain.
func (inv *Invocation[C, R]) Context() C {
	return inv.ctx
}

// Proceed runs the rest of the chain and, finally, the terminal function.
// Calling it more than once runs the remainder again.
func (inv *Invocation[C, R]) Proceed() (R, error) {
	return inv.chain.run(inv.ctx, inv.index+1)
}

// Chain is an immutable, priority-ordered interceptor chain.
type Chain[C, R any] struct {
	interceptors []Interceptor[C, R]
	terminal     func(C) (R, error)
}

// NewChain builds a chain. Interceptors are sorted by priority; equal
// priorities keep their given order.
func NewChain[C, R any](interceptors []Interceptor[C, R], terminal func(C) (R, error)) *Chain[C, R] {
	sorted := make([]Interceptor[C, R], len(interceptors))
	copy(sorted, interceptors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Chain[C, R]{interceptors: sorted, terminal: terminal}
}

// Run executes the chain for ctx.
func (c *Chain[C, R]) Run(ctx C) (R, error) {
	if len(c.interceptors) == 0 {
		return c.terminal(ctx)
	}
	return c.run(ctx, 0)
}

// Len returns the number of interceptors.
func (c *Chain[C, R]) Len() int {
	return len(c.interceptors)
}

func (c *Chain[C, R]) run(ctx C, index int) (R, error) {
	if index >= len(c.interceptors) {
		return c.terminal(ctx)
	}
	inv := &Invocation[C, R]{ctx: ctx, chain: c, index: index}
	return c.interceptors[index].Intercept(inv)
}

// Whole-flow chain types.
type (
	ProcessingInvocation = Invocation[*listener.ProcessingContext, *listener.ProcessingResult]
	ProcessingChain      = Chain[*listener.ProcessingContext, *listener.ProcessingResult]
	Processing           = Interceptor[*listener.ProcessingContext, *listener.ProcessingResult]
)

// NewProcessingChain builds the whole-flow chain around terminal.
func NewProcessingChain(
	interceptors []Processing,
	terminal func(*listener.ProcessingContext) (*listener.ProcessingResult, error),
) *ProcessingChain {
	return NewChain(interceptors, terminal)
}

// ProcessingFunc adapts a function to a Processing interceptor.
func ProcessingFunc(priority int, fn func(inv *ProcessingInvocation) (*listener.ProcessingResult, error)) Processing {
	return &processingFunc{priority: priority, fn: fn}
}

type processingFunc struct {
	priority int
	fn       func(inv *ProcessingInvocation) (*listener.ProcessingResult, error)
}

func (p *processingFunc) Priority() int { return p.priority }

func (p *processingFunc) Intercept(inv *ProcessingInvocation) (*listener.ProcessingResult, error) {
	return p.fn(inv)
}
