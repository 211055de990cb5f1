package dict

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	d := New()
	d.Set("a", 1)
	d.Set("b", 2)

	v, ok := d.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.True(t, d.Delete("a"))
	_, ok = d.Get("a")
	require.False(t, ok)

	require.Equal(t, 1, d.Len())
}

func TestIncrementalRehashPreservesAllEntries(t *testing.T) {
	d := New()
	const n = 500
	for i := 0; i < n; i++ {
		d.Set(fmt.Sprintf("key-%d", i), i)
	}
	require.Equal(t, n, d.Len())

	// Drain any in-progress rehash via repeated small steps, as the
	// reactor's bulk-mode tick would.
	for d.Rehashing() {
		d.RehashTick(4)
	}

	for i := 0; i < n; i++ {
		v, ok := d.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestForEachVisitsEveryLiveEntry(t *testing.T) {
	d := New()
	want := map[string]bool{}
	for i := 0; i < 200; i++ {
		k := fmt.Sprintf("k%d", i)
		d.Set(k, i)
		want[k] = true
	}
	seen := map[string]bool{}
	d.ForEach(func(key string, value any) bool {
		seen[key] = true
		return true
	})
	require.Equal(t, want, seen)
}

func TestRandomKeyOnEmptyDict(t *testing.T) {
	d := New()
	_, _, ok := d.RandomKey()
	require.False(t, ok)
}
