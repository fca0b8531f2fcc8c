package attr_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botevent/pkg/botevent/attr"
)

func TestMap_SetGetRemove(t *testing.T) {
	m := attr.NewMap()
	count := attr.NewKey[int]("test.count")
	name := attr.NewKey[string]("test.name")

	_, ok := attr.Get(m, count)
	assert.False(t, ok)

	attr.Set(m, count, 3)
	attr.Set(m, name, "bot")

	v, ok := attr.Get(m, count)
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"test.count", "test.name"}, m.Names())

	removed, ok := attr.Remove(m, count)
	require.True(t, ok)
	assert.Equal(t, 3, removed)
	assert.False(t, m.Has("test.count"))

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMap_TypeMismatch(t *testing.T) {
	m := attr.NewMap()
	attr.Set(m, attr.NewKey[string]("test.slot"), "text")

	_, ok := attr.Get(m, attr.NewKey[int]("test.slot"))
	assert.False(t, ok)
}

func TestGet_NilMap(t *testing.T) {
	_, ok := attr.Get[int](nil, attr.NewKey[int]("test.any"))
	assert.False(t, ok)
}

func TestGetOrCreate_FactoryRunsOnce(t *testing.T) {
	m := attr.NewMap()
	key := attr.NewKey[*atomic.Int64]("test.counter")

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := attr.GetOrCreate(m, key, func() *atomic.Int64 {
				calls.Add(1)
				return &atomic.Int64{}
			})
			c.Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	c, ok := attr.Get(m, key)
	require.True(t, ok)
	assert.Equal(t, int64(50), c.Load())
}

func TestMap_RangeSnapshot(t *testing.T) {
	m := attr.NewMap()
	attr.Set(m, attr.NewKey[int]("a"), 1)
	attr.Set(m, attr.NewKey[int]("b"), 2)

	seen := 0
	m.Range(func(name string, _ any) bool {
		attr.Set(m, attr.NewKey[int](name+"-copy"), 0)
		seen++
		return true
	})
	assert.Equal(t, 2, seen)
	assert.Equal(t, 4, m.Len())
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "instant", attr.Instant.String())
	assert.Equal(t, "global", attr.Global.String())
	assert.Equal(t, "continuous_session", attr.ContinuousSession.String())
}
