package skiplist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertRankAndRange(t *testing.T) {
	l := New()
	l.Insert("a", 1)
	l.Insert("b", 2)
	l.Insert("c", 3)

	require.Equal(t, 3, l.Len())
	require.Equal(t, 0, l.Rank("a", 1))
	require.Equal(t, 2, l.Rank("c", 3))

	members := l.RangeByScore(1, 3, 0, -1, false)
	require.Equal(t, []Member{{"a", 1}, {"b", 2}, {"c", 3}}, members)

	rev := l.RangeByScore(1, 3, 0, -1, true)
	require.Equal(t, []Member{{"c", 3}, {"b", 2}, {"a", 1}}, rev)
}

func TestDelete(t *testing.T) {
	l := New()
	l.Insert("a", 1)
	l.Insert("b", 2)
	require.True(t, l.Delete("a", 1))
	require.Equal(t, 1, l.Len())
	require.Equal(t, -1, l.Rank("a", 1))
}

func TestRangeByRank(t *testing.T) {
	l := New()
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		l.Insert(k, float64(i))
	}
	got := l.RangeByRank(1, 3, false)
	require.Equal(t, []Member{{"b", 1}, {"c", 2}, {"d", 3}}, got)

	gotRev := l.RangeByRank(0, 1, true)
	require.Equal(t, []Member{{"e", 4}, {"d", 3}}, gotRev)
}

func TestTiesBrokenLexicographically(t *testing.T) {
	l := New()
	l.Insert("zebra", 1)
	l.Insert("apple", 1)
	members := l.RangeByScore(1, 1, 0, -1, false)
	require.Equal(t, "apple", members[0].Key)
	require.Equal(t, "zebra", members[1].Key)
}
