package filter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botevent/pkg/botevent/event"
	"github.com/randalmurphal/botevent/pkg/botevent/filter"
	"github.com/randalmurphal/botevent/pkg/botevent/listener"
)

func ctxFor(ev event.Event) *listener.Context {
	pc := listener.NewProcessingContext(context.Background(), ev)
	return listener.NewContext(pc, listener.New("probe", nil))
}

func match(t *testing.T, m listener.MatchFunc, ctx *listener.Context) bool {
	t.Helper()
	ok, err := m(ctx)
	require.NoError(t, err)
	return ok
}

func TestTextMatchers(t *testing.T) {
	ctx := ctxFor(event.NewMessage(event.ContactMessageKey, "", "alice", "hello world"))

	tests := []struct {
		name string
		m    listener.MatchFunc
		want bool
	}{
		{"equals hit", filter.TextEquals("hello world"), true},
		{"equals miss", filter.TextEquals("hello"), false},
		{"prefix", filter.TextPrefix("hell"), true},
		{"contains", filter.TextContains("o w"), true},
		{"contains miss", filter.TextContains("bye"), false},
		{"regexp", filter.TextRegexp(`^h\w+ w`), true},
		{"always", filter.Always(), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, match(t, tt.m, ctx))
		})
	}
}

func TestCommand_RewritesText(t *testing.T) {
	ctx := ctxFor(event.NewMessage(event.ContactMessageKey, "", "alice", "/echo  some text "))

	assert.True(t, match(t, filter.Command("/", "echo"), ctx))
	assert.Equal(t, "some text", ctx.TextContent())

	other := ctxFor(event.NewMessage(event.ContactMessageKey, "", "alice", "/echoes"))
	assert.False(t, match(t, filter.Command("/", "echo"), other))
	assert.Equal(t, "/echoes", other.TextContent())

	bare := ctxFor(event.NewMessage(event.ContactMessageKey, "", "alice", "/echo"))
	assert.True(t, match(t, filter.Command("/", "echo"), bare))
	assert.Equal(t, "", bare.TextContent())
}

func TestIdentityMatchers(t *testing.T) {
	groupMsg := ctxFor(event.NewMessage(event.OrganizationMessageKey, "group-1", "bob", "hi",
		event.WithVisibleScope(event.ScopeInternal)))

	assert.True(t, match(t, filter.Author("alice", "bob"), groupMsg))
	assert.False(t, match(t, filter.Author("carol"), groupMsg))
	assert.True(t, match(t, filter.Source("group-1"), groupMsg))
	assert.False(t, match(t, filter.Source("group-2"), groupMsg))
	assert.True(t, match(t, filter.Scope(event.ScopeInternal), groupMsg))
	assert.False(t, match(t, filter.Scope(event.ScopePublic), groupMsg))
	assert.True(t, match(t, filter.Key(event.OrganizationKey), groupMsg))
	assert.False(t, match(t, filter.Key(event.ContactMessageKey), groupMsg))
}

type bareEvent struct{ event.Base }

func TestIdentityMatchers_MissingCapability(t *testing.T) {
	key := event.KeyFor[*bareEvent]("filter_test.bare")
	ctx := ctxFor(&bareEvent{Base: event.NewBase(key)})

	assert.False(t, match(t, filter.Author("alice"), ctx))
	assert.False(t, match(t, filter.Source("g"), ctx))
	assert.Equal(t, "", ctx.TextContent())
}

func TestCombinators(t *testing.T) {
	ctx := ctxFor(event.NewMessage(event.ContactMessageKey, "", "alice", "ping"))
	yes := filter.TextEquals("ping")
	no := filter.TextEquals("pong")
	boom := errors.New("boom")
	fail := func(*listener.Context) (bool, error) { return false, boom }

	assert.True(t, match(t, filter.All(yes, yes), ctx))
	assert.False(t, match(t, filter.All(yes, no), ctx))
	assert.True(t, match(t, filter.All(), ctx))
	assert.True(t, match(t, filter.Any(no, yes), ctx))
	assert.False(t, match(t, filter.Any(), ctx))
	assert.True(t, match(t, filter.Not(no), ctx))

	_, err := filter.All(yes, fail)(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = filter.Any(no, fail)(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = filter.Not(fail)(ctx)
	assert.ErrorIs(t, err, boom)
}
