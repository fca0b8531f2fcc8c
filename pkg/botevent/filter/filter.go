// Package filter provides matcher primitives for listeners and interceptors.
//
// Every constructor returns a listener.MatchFunc: a pure predicate over a
// listener context. Combine them with All, Any and Not.
package filter

import (
	"regexp"
	"strings"

	"github.com/randalmurphal/botevent/pkg/botevent/event"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

// Always matches every event.
func Always() listener.MatchFunc {
	return func(*listener.Context) (bool, error) { return true, nil }
}

// Key matches events whose key is a subtype of any of keys.
func Key(keys ...*event.Key) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		k := ctx.Event().Key()
		for _, want := range keys {
			if k.IsSubtypeOf(want) {
				return true, nil
			}
		}
		return false, nil
	}
}

// TextEquals matches when the context text equals text exactly.
func TextEquals(text string) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		return ctx.TextContent() == text, nil
	}
}

// TextPrefix matches when the context text starts with prefix.
func TextPrefix(prefix string) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		return strings.HasPrefix(ctx.TextContent(), prefix), nil
	}
}

// TextContains matches when the context text contains substr.
func TextContains(substr string) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		return strings.Contains(ctx.TextContent(), substr), nil
	}
}

// TextRegexp matches when pattern matches the context text. The pattern
// is compiled once; an invalid pattern panics at construction.
func TextRegexp(pattern string) listener.MatchFunc {
	re := regexp.MustCompile(pattern)
	return func(ctx *listener.Context) (bool, error) {
		return re.MatchString(ctx.TextContent()), nil
	}
}

// Command matches "<prefix><name>" optionally followed by arguments and
// rewrites the context text to the arguments, so later matchers and the
// listener see only them.
func Command(prefix, name string) listener.MatchFunc {
	head := prefix + name
	return func(ctx *listener.Context) (bool, error) {
		text := strings.TrimSpace(ctx.TextContent())
		if text != head && !strings.HasPrefix(text, head+" ") {
			return false, nil
		}
		ctx.SetTextContent(strings.TrimSpace(strings.TrimPrefix(text, head)))
		return true, nil
	}
}

// Author matches events whose author is one of ids.
func Author(ids ...string) listener.MatchFunc {
	set := toSet(ids)
	return func(ctx *listener.Context) (bool, error) {
		ae, ok := ctx.Event().(event.AuthorEvent)
		if !ok {
			return false, nil
		}
		_, hit := set[ae.AuthorID()]
		return hit, nil
	}
}

// Source matches events that happened in one of the organizations ids.
func Source(ids ...string) listener.MatchFunc {
	set := toSet(ids)
	return func(ctx *listener.Context) (bool, error) {
		se, ok := ctx.Event().(event.SourceEvent)
		if !ok {
			return false, nil
		}
		_, hit := set[se.SourceID()]
		return hit, nil
	}
}

// Scope matches events with one of the visible scopes.
func Scope(scopes ...event.VisibleScope) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		s := ctx.Event().VisibleScope()
		for _, want := range scopes {
			if s == want {
				return true, nil
			}
		}
		return false, nil
	}
}

// All matches when every matcher matches. Evaluation stops at the first
// miss or error. All() matches everything.
func All(matchers ...listener.MatchFunc) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		for _, m := range matchers {
			ok, err := m(ctx)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Any matches when at least one matcher matches. Any() matches nothing.
func Any(matchers ...listener.MatchFunc) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		for _, m := range matchers {
			ok, err := m(ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Not inverts a matcher. Errors are passed through unchanged.
func Not(m listener.MatchFunc) listener.MatchFunc {
	return func(ctx *listener.Context) (bool, error) {
		ok, err := m(ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
