package ziplist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strVal(s string) Value { return Value{Str: []byte(s)} }
func intVal(v int64) Value  { return Value{IsInt: true, Int: v} }

func TestPushAndForwardOrder(t *testing.T) {
	l := New()
	l.PushBack(strVal("a"))
	l.PushBack(strVal("b"))
	l.PushBack(intVal(42))

	var got []string
	l.ForEach(func(v Value) bool {
		if v.IsInt {
			got = append(got, "42")
		} else {
			got = append(got, string(v.Str))
		}
		return true
	})
	require.Equal(t, []string{"a", "b", "42"}, got)
	require.Equal(t, 3, l.Len())
}

func TestForwardAndReverseAreMirrorImages(t *testing.T) {
	l := New()
	for i := 0; i < 20; i++ {
		l.PushBack(intVal(int64(i)))
	}

	var fwd, rev []int64
	l.ForEach(func(v Value) bool { fwd = append(fwd, v.Int); return true })
	l.ForEachReverse(func(v Value) bool { rev = append(rev, v.Int); return true })

	require.Equal(t, len(fwd), len(rev))
	for i := range fwd {
		require.Equal(t, fwd[i], rev[len(rev)-1-i])
	}
}

func TestTailOffsetPointsAtLastEntry(t *testing.T) {
	l := New()
	l.PushBack(strVal("one"))
	l.PushBack(strVal("two"))
	l.PushBack(strVal("three"))

	offsets := l.entryOffsets()
	require.Equal(t, uint64(offsets[len(offsets)-1]), l.TailOffset())
}

func TestLargeStringsForceCascadeWidening(t *testing.T) {
	l := New()
	big := make([]byte, 300)
	for i := range big {
		big[i] = 'x'
	}
	l.PushBack(Value{Str: big})
	l.PushBack(strVal("short"))

	vals := l.Values()
	require.Equal(t, big, vals[0].Str)
	require.Equal(t, "short", string(vals[1].Str))
}

func TestDeleteAtAndSet(t *testing.T) {
	l := New()
	l.PushBack(intVal(1))
	l.PushBack(intVal(2))
	l.PushBack(intVal(3))

	l.DeleteAt(1)
	require.Equal(t, 2, l.Len())
	require.Equal(t, int64(3), l.At(1).Int)

	l.Set(0, intVal(99))
	require.Equal(t, int64(99), l.At(0).Int)
}
