package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZAddNXSkipsExistingMember(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "ZADD", "z", "1", "m")
	require.Equal(t, ":0\r\n", dispatch(e, c, "ZADD", "z", "NX", "2", "m"))
	require.Equal(t, "$1\r\n1\r\n", dispatch(e, c, "ZSCORE", "z", "m"))
}

func TestZAddGTOnlyRaisesScore(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "ZADD", "z", "5", "m")
	require.Equal(t, ":0\r\n", dispatch(e, c, "ZADD", "z", "GT", "CH", "3", "m"))
	require.Equal(t, "$1\r\n5\r\n", dispatch(e, c, "ZSCORE", "z", "m"))
	require.Equal(t, ":1\r\n", dispatch(e, c, "ZADD", "z", "GT", "CH", "9", "m"))
	require.Equal(t, "$1\r\n9\r\n", dispatch(e, c, "ZSCORE", "z", "m"))
}

func TestZAddIncrReturnsNewScore(t *testing.T) {
	e, c := newTestEngine()
	require.Equal(t, "$1\r\n5\r\n", dispatch(e, c, "ZADD", "z", "INCR", "5", "m"))
	require.Equal(t, "$2\r\n10\r\n", dispatch(e, c, "ZADD", "z", "INCR", "5", "m"))
}

func TestZRevRankOppositeOfZRank(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "ZADD", "z", "1", "a", "2", "b", "3", "c")
	require.Equal(t, ":0\r\n", dispatch(e, c, "ZRANK", "z", "a"))
	require.Equal(t, ":2\r\n", dispatch(e, c, "ZREVRANK", "z", "a"))
	require.Equal(t, ":0\r\n", dispatch(e, c, "ZREVRANK", "z", "c"))
}

func TestZRangeByScoreModifier(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "ZADD", "z", "1", "a", "2", "b", "3", "c")
	want := "*2\r\n$1\r\na\r\n$1\r\nb\r\n"
	require.Equal(t, want, dispatch(e, c, "ZRANGE", "z", "1", "2", "BYSCORE"))
}
