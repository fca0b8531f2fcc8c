// Package botevent is the event-dispatch core of a chat bot framework.
//
// A Manager holds listeners. Push resolves the listeners targeting an
// event's key, runs the synchronous ones in priority order through their
// interceptor chains, launches the asynchronous ones, and offers the event
// to every outstanding continuous session. Listener failures are contained
// per listener; Push itself fails only when the event cannot be dispatched.
//
// Basic usage:
//
//	mgr := botevent.New()
//	mgr.MustRegister(listener.New("ping", func(ctx *listener.Context) (listener.Result, error) {
//	    return listener.Of("pong"), nil
//	}, listener.ForKeys(event.MessageKey), listener.WithMatcher(filter.TextEquals("ping"))))
//
//	res, err := mgr.Push(ctx, event.NewMessage(event.ContactMessageKey, "", "alice", "ping"))
//	// res.Contents() == []any{"pong"}
//
// A listener can wait for a follow-up event without blocking other events:
//
//	engine, _ := session.FromContext(ctx.ProcessingContext)
//	answer, err := session.NextMessage(ctx, engine, "", nil,
//	    []session.Match{session.SameConversation(ctx.Event())},
//	    session.WithTimeout(time.Minute))
//
// Subpackages:
//   - event: events, keys and the key registry
//   - listener: listeners, results and processing contexts
//   - interceptor: whole-flow and per-listener interceptor chains
//   - filter: matcher primitives
//   - session: continuous sessions
//   - attr: typed attribute scopes
//   - future: single-resolution promises
//   - failure: listener failure records
//   - config, logging, observability: ambient setup
package botevent
