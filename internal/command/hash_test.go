package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHSetNXOnlySetsWhenFieldAbsent(t *testing.T) {
	e, c := newTestEngine()
	require.Equal(t, ":1\r\n", dispatch(e, c, "HSETNX", "h", "f", "v1"))
	require.Equal(t, ":0\r\n", dispatch(e, c, "HSETNX", "h", "f", "v2"))
	require.Equal(t, "$2\r\nv1\r\n", dispatch(e, c, "HGET", "h", "f"))
}

func TestHMGetReturnsNilForMissingFields(t *testing.T) {
	e, c := newTestEngine()
	dispatch(e, c, "HSET", "h", "a", "1")
	require.Equal(t, "*3\r\n$1\r\n1\r\n$-1\r\n$-1\r\n", dispatch(e, c, "HMGET", "h", "a", "b", "c"))
}

func TestHMGetOnMissingKeyReturnsAllNil(t *testing.T) {
	e, c := newTestEngine()
	require.Equal(t, "*2\r\n$-1\r\n$-1\r\n", dispatch(e, c, "HMGET", "nope", "a", "b"))
}
