package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botevent/pkg/botevent/event"
	"github.com/randalmurphal/botevent/pkg/botevent/session"
)

func TestAttachFromContext(t *testing.T) {
	e := session.NewEngine()
	pc := pcFor(event.NewMessage(event.ContactMessageKey, "", "a", "x"))

	_, ok := session.FromContext(pc)
	assert.False(t, ok)

	session.Attach(pc, e)
	got, ok := session.FromContext(pc)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestNextMessage_SameAuthor(t *testing.T) {
	e := session.NewEngine()
	origin := event.NewMessage(event.ContactMessageKey, "", "alice", "/ask")

	done := make(chan string, 1)
	go func() {
		content, err := session.NextMessage(context.Background(), e, "ask:alice", nil,
			[]session.Match{session.SameAuthor(origin)}, session.WithTimeout(time.Second))
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- content.PlainText()
	}()
	require.Eventually(t, func() bool { return e.Len() == 1 }, time.Second, time.Millisecond)

	e.Offer(pcFor(event.NewMessage(event.ContactMessageKey, "", "bob", "not me")))
	assert.Equal(t, 1, e.Len())

	e.Offer(pcFor(event.NewMessage(event.ContactMessageKey, "", "alice", "my answer")))
	assert.Equal(t, "my answer", <-done)
}

type joinEvent struct {
	event.Base
	org string
}

func (j *joinEvent) SourceID() string { return j.org }

var joinKey = event.KeyFor[*joinEvent]("session_test.join", event.OrganizationKey)

func TestNext_KeyAndType(t *testing.T) {
	e := session.NewEngine()

	done := make(chan *joinEvent, 1)
	go func() {
		ev, err := session.Next[*joinEvent](context.Background(), e, "join", joinKey, nil,
			session.WithTimeout(time.Second))
		if err == nil {
			done <- ev
		}
		close(done)
	}()
	require.Eventually(t, func() bool { return e.Len() == 1 }, time.Second, time.Millisecond)

	e.Offer(pcFor(event.NewMessage(event.OrganizationMessageKey, "g1", "a", "hi")))
	assert.Equal(t, 1, e.Len(), "wrong key")

	join := &joinEvent{Base: event.NewBase(joinKey), org: "g1"}
	e.Offer(pcFor(join))
	assert.Same(t, join, <-done)
}

func TestCorrelationMatchers(t *testing.T) {
	origin := event.NewMessage(event.OrganizationMessageKey, "g1", "alice", "start")
	sameBoth := event.NewMessage(event.OrganizationMessageKey, "g1", "alice", "x")
	otherOrg := event.NewMessage(event.OrganizationMessageKey, "g2", "alice", "x")
	otherAuthor := event.NewMessage(event.OrganizationMessageKey, "g1", "bob", "x")
	join := &joinEvent{Base: event.NewBase(joinKey), org: "g1"}

	assert.True(t, session.SameAuthor(origin)(sameBoth))
	assert.False(t, session.SameAuthor(origin)(otherAuthor))
	assert.False(t, session.SameAuthor(origin)(join), "no author capability")

	assert.True(t, session.SameSource(origin)(join))
	assert.False(t, session.SameSource(origin)(otherOrg))

	conv := session.SameConversation(origin)
	assert.True(t, conv(sameBoth))
	assert.False(t, conv(otherOrg))
	assert.False(t, conv(otherAuthor))
}
