package event_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botevent/pkg/botevent/event"
)

type pingEvent struct {
	event.Base
}

var (
	keyC = event.KeyFor[*pingEvent]("test.c")
	keyB = event.KeyFor[*pingEvent]("test.b", keyC)
	keyA = event.KeyFor[*pingEvent]("test.a", keyB)
	keyX = event.KeyFor[*pingEvent]("test.x")
)

func TestIsSubtypeOf_Transitive(t *testing.T) {
	assert.True(t, event.IsSubtypeOf(keyA, keyB))
	assert.True(t, event.IsSubtypeOf(keyA, keyC))
	assert.True(t, event.IsSubtypeOf(keyB, keyC))
	assert.False(t, event.IsSubtypeOf(keyC, keyA))
	assert.False(t, event.IsSubtypeOf(keyA, keyX))
}

func TestIsSubtypeOf_MemoizedAnswersAreStable(t *testing.T) {
	first := keyA.IsSubtypeOf(keyC)
	firstNeg := keyA.IsSubtypeOf(keyX)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, keyA.IsSubtypeOf(keyC))
		assert.Equal(t, firstNeg, keyA.IsSubtypeOf(keyX))
	}
}

func TestIsSubtypeOf_RootAndSelf(t *testing.T) {
	assert.True(t, keyX.IsSubtypeOf(event.Root))
	assert.True(t, keyX.IsSubtypeOf(keyX))
	assert.False(t, event.Root.IsSubtypeOf(keyX))
	assert.False(t, event.IsSubtypeOf(nil, keyX))
	assert.False(t, event.IsSubtypeOf(keyX, nil))
}

func TestIsSubtypeOf_MultipleParents(t *testing.T) {
	assert.True(t, event.OrganizationMessageKey.IsSubtypeOf(event.MessageKey))
	assert.True(t, event.OrganizationMessageKey.IsSubtypeOf(event.OrganizationKey))
	assert.False(t, event.ContactMessageKey.IsSubtypeOf(event.OrganizationKey))
}

func TestIsSubtypeOf_Concurrent(t *testing.T) {
	deep := keyC
	for i := 0; i < 20; i++ {
		deep = event.KeyFor[*pingEvent]("test.deep."+string(rune('a'+i)), deep)
	}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, deep.IsSubtypeOf(keyC))
				assert.False(t, deep.IsSubtypeOf(keyX))
			}
		}()
	}
	wg.Wait()
}

func TestNewKey_PanicsOnInvalidDeclaration(t *testing.T) {
	assert.Panics(t, func() { event.KeyFor[*pingEvent]("") })
	assert.Panics(t, func() { event.NewKey("test.nocast", nil) })
	assert.Panics(t, func() { event.KeyFor[*pingEvent]("test.nilparent", nil) })
}

func TestSafeCast(t *testing.T) {
	ping := &pingEvent{Base: event.NewBase(keyA)}

	assert.Same(t, ping, keyA.SafeCast(ping))
	assert.Nil(t, keyA.SafeCast("not an event"))
	assert.Nil(t, keyA.SafeCast(nil))

	msg := event.NewMessage(event.MessageKey, "", "alice", "hi")
	assert.Nil(t, keyA.SafeCast(msg))
	assert.NotNil(t, event.MessageKey.SafeCast(msg))

	typed, ok := event.Cast[*event.Message](event.MessageKey, msg)
	require.True(t, ok)
	assert.Equal(t, "alice", typed.AuthorID())

	_, ok = event.Cast[*pingEvent](event.MessageKey, msg)
	assert.False(t, ok)
}

func TestKeyRegistry(t *testing.T) {
	reg := event.NewKeyRegistry()
	key := event.KeyFor[*pingEvent]("test.registry")

	require.NoError(t, reg.Register(key))
	require.NoError(t, reg.Register(key), "same key twice is a no-op")

	err := reg.Register(event.KeyFor[*pingEvent]("test.registry"))
	require.ErrorIs(t, err, event.ErrKeyConflict)

	got, ok := reg.Get("test.registry")
	require.True(t, ok)
	assert.Same(t, key, got)
	assert.True(t, reg.Has(event.Root.ID()))
	assert.Equal(t, []string{"botevent.root", "test.registry"}, reg.IDs())

	assert.Panics(t, func() {
		reg.MustRegister(event.KeyFor[*pingEvent]("test.registry"))
	})
}

func TestDefaultKeys_StandardTaxonomy(t *testing.T) {
	for _, id := range []string{
		"botevent.message",
		"botevent.contact_message",
		"botevent.organization",
		"botevent.organization_message",
	} {
		assert.True(t, event.DefaultKeys.Has(id), id)
	}
}

func TestNewBase_Defaults(t *testing.T) {
	b := event.NewBase(keyA)
	assert.NotEmpty(t, b.ID())
	assert.Same(t, keyA, b.Key())
	assert.False(t, b.Timestamp().IsZero())
	assert.Equal(t, event.ScopePublic, b.VisibleScope())

	b = event.NewBase(keyA, event.WithID("e-1"), event.WithVisibleScope(event.ScopePrivate))
	assert.Equal(t, "e-1", b.ID())
	assert.Equal(t, "private", b.VisibleScope().String())

	assert.Panics(t, func() { event.NewBase(nil) })
}
