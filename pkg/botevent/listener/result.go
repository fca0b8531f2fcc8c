package listener

import (
	"context"

	"github.com/randalmurphal/botevent/pkg/botevent/future"
)

// Result is the outcome of one listener invocation.
type Result interface {
	// Content is the opaque value produced by the listener.
	Content() any

	// IsTruncated stops the remaining synchronous listeners for this event.
	IsTruncated() bool
}

type result struct {
	content   any
	truncated bool
}

func (r result) Content() any      { return r.content }
func (r result) IsTruncated() bool { return r.truncated }

// Of returns a non-truncating result carrying content.
func Of(content any) Result {
	return result{content: content}
}

// Truncated returns a result that stops the remaining synchronous listeners.
func Truncated(content any) Result {
	return result{content: content, truncated: true}
}

type invalidResult struct{}

func (invalidResult) Content() any      { return nil }
func (invalidResult) IsTruncated() bool { return false }

// Invalid is returned when a listener did not apply. It is never stored.
var Invalid Result = invalidResult{}

// IsInvalid reports whether r is Invalid or nil.
func IsInvalid(r Result) bool {
	if r == nil {
		return true
	}
	_, ok := r.(invalidResult)
	return ok
}

// AsyncResult is the immediate result of an asynchronous listener.
// Its content is the AsyncResult itself; the real result arrives later
// through Await. Async results never truncate.
type AsyncResult struct {
	promise *future.Promise[Result]
}

// NewAsync wraps a promise that will carry the detached listener's result.
func NewAsync(p *future.Promise[Result]) *AsyncResult {
	return &AsyncResult{promise: p}
}

// Content returns the async result itself.
func (a *AsyncResult) Content() any { return a }

// IsTruncated is always false.
func (a *AsyncResult) IsTruncated() bool { return false }

// Await blocks until the detached listener finishes or ctx is done.
func (a *AsyncResult) Await(ctx context.Context) (Result, error) {
	return a.promise.Await(ctx)
}

// Done returns a channel closed once the detached listener finished.
func (a *AsyncResult) Done() <-chan struct{} {
	return a.promise.Done()
}

// ProcessingResult is the ordered collection of non-invalid listener
// results produced for one dispatched event.
type ProcessingResult struct {
	results []Result
}

// EmptyResult is the result of an event nobody processed.
var EmptyResult = &ProcessingResult{}

// NewProcessingResult wraps results, dropping invalid entries.
func NewProcessingResult(results []Result) *ProcessingResult {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if !IsInvalid(r) {
			kept = append(kept, r)
		}
	}
	return &ProcessingResult{results: kept}
}

// Results returns a copy of the collected results in invocation order.
func (r *ProcessingResult) Results() []Result {
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Contents returns the content of each result in invocation order.
func (r *ProcessingResult) Contents() []any {
	out := make([]any, 0, len(r.results))
	for _, res := range r.results {
		out = append(out, res.Content())
	}
	return out
}

// Len returns the number of results.
func (r *ProcessingResult) Len() int {
	return len(r.results)
}

// IsEmpty reports whether no listener produced a result.
func (r *ProcessingResult) IsEmpty() bool {
	return len(r.results) == 0
}
