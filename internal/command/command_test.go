package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"redisd/internal/db"
)

func newTestEngine() (*Engine, *Client) {
	ks := db.NewKeyspace(16)
	return NewEngine(ks), &Client{}
}

func dispatch(e *Engine, c *Client, parts ...string) string {
	args := make([][]byte, len(parts))
	for i, p := range parts {
		args[i] = []byte(p)
	}
	return string(e.Dispatch(c, args, 1000, nil))
}

func TestSetGetRoundTrip(t *testing.T) {
	e, c := newTestEngine()
	require.Equal(t, "+OK\r\n", dispatch(e, c, "SET", "k", "v"))
	require.Equal(t, "$1\r\nv\r\n", dispatch(e, c, "GET", "k"))
}

func TestIncrOnMissingKeyStartsAtZero(t *testing.T) {
	e, c := newTestEngine()
	require.Equal(t, ":1\r\n", dispatch(e, c, "INCR", "ctr"))
	require.Equal(t, ":2\r\n", dispatch(e, c, "INCR", "ctr"))
}

func TestWrongTypeError(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "SET", "k", "v")
	require.Contains(t, dispatch(e, c, "LPUSH", "k", "x"), "WRONGTYPE")
}

func TestArityRejected(t *testing.T) {
	e, c := newTestEngine()
	require.Contains(t, dispatch(e, c, "GET"), "wrong number of arguments")
}

func TestUnknownCommand(t *testing.T) {
	e, c := newTestEngine()
	require.Contains(t, dispatch(e, c, "BOGUS"), "unknown command")
}

func TestExpireThenTTLReportsMissing(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "SET", "k", "v")
	require.Equal(t, ":1\r\n", dispatch(e, c, "PEXPIRE", "k", "1"))
	require.Equal(t, "$-1\r\n", e.Dispatch(c, [][]byte{[]byte("GET"), []byte("k")}, 5000, nil))
	require.Equal(t, ":-2\r\n", e.Dispatch(c, [][]byte{[]byte("TTL"), []byte("k")}, 5000, nil))
}

func TestSInterStoreOnEmptyIntersectionDeletesDest(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "SADD", "a", "1", "2")
	dispatch(e, c, "SADD", "b", "3", "4")
	dispatch(e, c, "SADD", "dest", "stale")
	require.Equal(t, ":0\r\n", dispatch(e, c, "SINTERSTORE", "dest", "a", "b"))
	require.Equal(t, ":0\r\n", dispatch(e, c, "EXISTS", "dest"))
}

func TestSelectSwitchesDatabase(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "SET", "k", "db0")
	dispatch(e, c, "SELECT", "1")
	require.Equal(t, "$-1\r\n", dispatch(e, c, "GET", "k"))
	dispatch(e, c, "SELECT", "0")
	require.Equal(t, "$3\r\ndb0\r\n", dispatch(e, c, "GET", "k"))
}

func TestPropagateCalledOnlyOnWriteThatChangedState(t *testing.T) {
	e, c := newTestEngine()
	var propagated int
	e.Propagate = func(dbIndex int, args [][]byte) { propagated++ }
	dispatch(e, c, "GET", "missing")
	require.Equal(t, 0, propagated)
	dispatch(e, c, "SET", "k", "v")
	require.Equal(t, 1, propagated)
}
