package session

import (
	"context"
	"errors"

	"github.com/randalmurphal/botevent/pkg/botevent/attr"
	"github.com/randalmurphal/botevent/pkg/botevent/event"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

var engineKey = attr.NewKey[*Engine]("botevent.session.engine")

// Attach makes e reachable from listener code handling pc.
func Attach(pc *listener.ProcessingContext, e *Engine) {
	attr.Set(pc.Attributes(attr.Instant), engineKey, e)
}

// FromContext returns the engine attached to pc.
func FromContext(pc *listener.ProcessingContext) (*Engine, bool) {
	return attr.Get(pc.Attributes(attr.Instant), engineKey)
}

// Match is a predicate over a candidate event.
type Match func(ev event.Event) bool

// Next waits for the next event whose key is a subtype of key, whose
// concrete type is E and that satisfies every match. A nil key accepts
// any key.
func Next[E event.Event](ctx context.Context, e *Engine, id string, key *event.Key, matches []Match, opts ...WaitOption) (E, error) {
	return Wait(ctx, e, id, func(pc *listener.ProcessingContext, p *Provider[E]) error {
		ev := pc.Event()
		if key != nil && !ev.Key().IsSubtypeOf(key) {
			return nil
		}
		typed, ok := ev.(E)
		if !ok {
			return nil
		}
		for _, m := range matches {
			if !m(ev) {
				return nil
			}
		}
		if err := p.Push(typed); err != nil && !errors.Is(err, ErrCompleted) {
			return err
		}
		return nil
	}, opts...)
}

// NextMessage waits for the next message event of key (event.MessageKey
// when nil) satisfying every match and returns its content.
func NextMessage(ctx context.Context, e *Engine, id string, key *event.Key, matches []Match, opts ...WaitOption) (event.MessageContent, error) {
	if key == nil {
		key = event.MessageKey
	}
	msg, err := Next[event.MessageEvent](ctx, e, id, key, matches, opts...)
	if err != nil {
		return nil, err
	}
	return msg.Content(), nil
}

// SameAuthor matches events written by the author of origin.
func SameAuthor(origin event.Event) Match {
	want, ok := origin.(event.AuthorEvent)
	return func(ev event.Event) bool {
		got, gotOK := ev.(event.AuthorEvent)
		return ok && gotOK && got.AuthorID() == want.AuthorID()
	}
}

// SameSource matches events from the organization of origin.
func SameSource(origin event.Event) Match {
	want, ok := origin.(event.SourceEvent)
	return func(ev event.Event) bool {
		got, gotOK := ev.(event.SourceEvent)
		return ok && gotOK && got.SourceID() == want.SourceID()
	}
}

// SameConversation matches events from the same author in the same
// organization as origin. Events without an organization compare by
// author alone.
func SameConversation(origin event.Event) Match {
	author := SameAuthor(origin)
	_, hasSource := origin.(event.SourceEvent)
	source := SameSource(origin)
	return func(ev event.Event) bool {
		if !author(ev) {
			return false
		}
		if !hasSource {
			_, evSource := ev.(event.SourceEvent)
			return !evSource
		}
		return source(ev)
	}
}
