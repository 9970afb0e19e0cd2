package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCell_InitiallyEmpty(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	v, ok := c.Get()
	require.False(t, ok)
	require.Equal(t, "", v)
}

func TestCell_SetIsVisible(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()

	c.Set("anz")
	v, ok := c.Get()
	require.True(t, ok)
	require.Equal(t, "anz", v)

	// empty string is a value, not "none"
	c.Set("")
	v, ok = c.Get()
	require.True(t, ok)
	require.Equal(t, "", v)

	c.Clear()
	_, ok = c.Get()
	require.False(t, ok)
}

func TestCell_LastWriteWins(t *testing.T) {
	t.Parallel()
	c := NewCell[int]()
	for i := 1; i <= 10; i++ {
		c.Set(i)
	}
	v, ok := c.Get()
	require.True(t, ok)
	require.Equal(t, 10, v)
}

func TestCell_FanOutInRegistrationOrder(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	var calls []string
	c.Subscribe(func(v string, ok bool) { calls = append(calls, "a:"+v) })
	c.Subscribe(func(v string, ok bool) { calls = append(calls, "b:"+v) })

	c.Set("cba")
	require.Equal(t, []string{"a:cba", "b:cba"}, calls)
}

func TestCell_SameValueStillNotifies(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	n := 0
	c.Subscribe(func(string, bool) { n++ })
	c.Set("anz")
	c.Set("anz")
	require.Equal(t, 2, n)
}

func TestCell_ClearNotifiesWithNone(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	c.Set("anz")
	var gotOK = true
	c.Subscribe(func(_ string, ok bool) { gotOK = ok })
	c.Clear()
	require.False(t, gotOK)
}

func TestCell_UnsubscribeIdempotent(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	n := 0
	unsub := c.Subscribe(func(string, bool) { n++ })
	c.Set("a")
	require.Equal(t, 1, n)

	unsub()
	require.NotPanics(t, unsub)
	c.Set("b")
	require.Equal(t, 1, n)
	require.Equal(t, 0, c.len())
}

func TestCell_UnsubscribeLeavesOthers(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	var got []string
	c.Subscribe(func(v string, _ bool) { got = append(got, "first") })
	unsub := c.Subscribe(func(v string, _ bool) { got = append(got, "second") })
	c.Subscribe(func(v string, _ bool) { got = append(got, "third") })

	unsub()
	c.Set("x")
	require.Equal(t, []string{"first", "third"}, got)
}

func TestCell_ObserverMayWriteBack(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	c.Subscribe(func(v string, ok bool) {
		if ok && v == "ANZ" {
			c.Set("anz")
		}
	})
	c.Set("ANZ")
	v, _ := c.Get()
	require.Equal(t, "anz", v)
}

func TestCell_NestedWriteLeavesNoStaleObserver(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	c.Subscribe(func(v string, ok bool) {
		if ok && v == "a" {
			c.Set("b")
		}
	})
	var second, third []string
	c.Subscribe(func(v string, _ bool) { second = append(second, v) })
	c.Subscribe(func(v string, _ bool) { third = append(third, v) })

	c.Set("a")
	v, ok := c.Get()
	require.True(t, ok)
	require.Equal(t, "b", v)
	require.Equal(t, []string{"b"}, second)
	require.Equal(t, []string{"b"}, third)
}

func TestCell_NestedClearLeavesNoStaleObserver(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	c.Subscribe(func(v string, ok bool) {
		if ok && v == "unknown" {
			c.Clear()
		}
	})
	lastOK := true
	c.Subscribe(func(_ string, ok bool) { lastOK = ok })

	c.Set("unknown")
	_, ok := c.Get()
	require.False(t, ok)
	require.False(t, lastOK)
}

func TestCell_SubscribeDuringDispatchSkipsInFlight(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	late := 0
	once := false
	c.Subscribe(func(string, bool) {
		if once {
			return
		}
		once = true
		c.Subscribe(func(string, bool) { late++ })
	})
	c.Set("a")
	require.Equal(t, 0, late)
	c.Set("b")
	require.Equal(t, 1, late)
}

func TestCell_UnsubscribedDuringDispatchIsSkipped(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	var unsubSecond func()
	second := 0
	c.Subscribe(func(string, bool) { unsubSecond() })
	unsubSecond = c.Subscribe(func(string, bool) { second++ })
	c.Set("a")
	require.Equal(t, 0, second)
}

func TestCell_NilObserver(t *testing.T) {
	t.Parallel()
	c := NewCell[string]()
	unsub := c.Subscribe(nil)
	require.Equal(t, 0, c.len())
	require.NotPanics(t, unsub)
	require.NotPanics(t, func() { c.Set("a") })
}

func TestCell_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	c := NewCell[int]()
	var mu sync.Mutex
	seen := 0
	c.Subscribe(func(int, bool) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(i)
			_, _ = c.Get()
		}(i)
	}
	wg.Wait()

	v, ok := c.Get()
	require.True(t, ok)
	require.GreaterOrEqual(t, v, 0)
	require.Less(t, v, 50)
	// superseded dispatches may be coalesced into the newer write
	require.GreaterOrEqual(t, seen, 1)
	require.LessOrEqual(t, seen, 50)
}
