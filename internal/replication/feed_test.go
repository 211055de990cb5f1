package replication

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPropagatePrependsSelectOnDBChange(t *testing.T) {
	f := New()
	var got [][]byte
	f.Attach(func(b []byte) { got = append(got, append([]byte(nil), b...)) })

	f.Propagate(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	require.Len(t, got, 2)
	require.Equal(t, "*2\r\n$6\r\nSELECT\r\n$1\r\n0\r\n", string(got[0]))
	require.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n", string(got[1]))

	got = nil
	f.Propagate(0, [][]byte{[]byte("SET"), []byte("k2"), []byte("v2")})
	require.Len(t, got, 1, "same db should not repeat SELECT")

	got = nil
	f.Propagate(1, [][]byte{[]byte("SET"), []byte("k3"), []byte("v3")})
	require.Len(t, got, 2, "db change re-sends SELECT")
}

func TestMonitorReceivesFormattedLine(t *testing.T) {
	f := New()
	var line []byte
	f.AttachMonitor(func(b []byte) { line = append([]byte(nil), b...) })

	f.Propagate(3, [][]byte{[]byte("GET"), []byte("k")})
	require.Equal(t, "+3 \"GET\" \"k\"\r\n", string(line))
}

func TestDetachStopsPropagation(t *testing.T) {
	f := New()
	calls := 0
	id := f.Attach(func(b []byte) { calls++ })
	f.Detach(id)
	f.Propagate(0, [][]byte{[]byte("PING")})
	require.Equal(t, 0, calls)
}
