package server

import (
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"redisd/internal/config"
)

// newTestServer builds a Server with no listener/reactor wiring (the six
// scenarios below drive it purely through ServeConn over a net.Pipe),
// snapshotting disabled so tests never touch the filesystem.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RDBFilepath = ""
	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

// roundTrip writes req to one end of a net.Pipe served by ServeConn and
// reads back exactly wantLen bytes of reply.
func roundTrip(t *testing.T, srv *Server, client net.Conn, req string, wantLen int) []byte {
	t.Helper()
	_, err := client.Write([]byte(req))
	require.NoError(t, err)
	buf := make([]byte, wantLen)
	_, err = io.ReadFull(client, buf)
	require.NoError(t, err)
	return buf
}

func newPipeServer(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	client, serverSide := net.Pipe()
	go ServeConn(srv, serverSide)
	t.Cleanup(func() { client.Close() })
	return client
}

// Scenario 1 (SPEC_FULL.md §8): a bare PING round-trips to +PONG.
func TestE2EPing(t *testing.T) {
	srv := newTestServer(t)
	client := newPipeServer(t, srv)

	got := roundTrip(t, srv, client, "*1\r\n$4\r\nPING\r\n", len("+PONG\r\n"))
	require.Equal(t, "+PONG\r\n", string(got))
}

// Scenario 2: SET then INCR on the same key.
func TestE2ESetThenIncr(t *testing.T) {
	srv := newTestServer(t)
	client := newPipeServer(t, srv)

	got := roundTrip(t, srv, client, "*3\r\n$3\r\nSET\r\n$1\r\na\r\n$1\r\n1\r\n", len("+OK\r\n"))
	require.Equal(t, "+OK\r\n", string(got))

	got = roundTrip(t, srv, client, "*2\r\n$4\r\nINCR\r\n$1\r\na\r\n", len(":2\r\n"))
	require.Equal(t, ":2\r\n", string(got))
}

// Scenario 3: SELECT past the configured database count errors.
func TestE2ESelectOutOfRange(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, 16, srv.cfg.Databases)
	client := newPipeServer(t, srv)

	want := "-ERR invalid DB index\r\n"
	got := roundTrip(t, srv, client, "*2\r\n$6\r\nSELECT\r\n$2\r\n99\r\n", len(want))
	require.Equal(t, want, string(got))
}

// Scenario 4: RPUSH three elements, then LRANGE the whole list back.
func TestE2ERPushThenLRange(t *testing.T) {
	srv := newTestServer(t)
	client := newPipeServer(t, srv)

	got := roundTrip(t, srv, client,
		"*5\r\n$5\r\nRPUSH\r\n$1\r\nk\r\n$1\r\nx\r\n$1\r\ny\r\n$1\r\nz\r\n", len(":3\r\n"))
	require.Equal(t, ":3\r\n", string(got))

	want := "*3\r\n$1\r\nx\r\n$1\r\ny\r\n$1\r\nz\r\n"
	got = roundTrip(t, srv, client,
		"*4\r\n$6\r\nLRANGE\r\n$1\r\nk\r\n$1\r\n0\r\n$2\r\n-1\r\n", len(want))
	require.Equal(t, want, string(got))
}

// Scenario 5: a small integer-looking string is encoded as "int".
func TestE2EObjectEncodingInt(t *testing.T) {
	srv := newTestServer(t)
	client := newPipeServer(t, srv)

	roundTrip(t, srv, client, "*3\r\n$3\r\nSET\r\n$1\r\na\r\n$1\r\n1\r\n", len("+OK\r\n"))

	want := "$3\r\nint\r\n"
	got := roundTrip(t, srv, client, "*3\r\n$6\r\nOBJECT\r\n$8\r\nENCODING\r\n$1\r\na\r\n", len(want))
	require.Equal(t, want, string(got))
}

// Scenario 6: an intset past 200 int members promotes to hashtable once
// a non-integer member is added; SCARD still reports every member.
func TestE2ESetPromotesFromIntsetToHashtable(t *testing.T) {
	srv := newTestServer(t)
	client := newPipeServer(t, srv)

	for i := 1; i <= 200; i++ {
		member := strconv.Itoa(i)
		req := "*3\r\n$4\r\nSADD\r\n$1\r\ns\r\n$" + strconv.Itoa(len(member)) + "\r\n" + member + "\r\n"
		roundTrip(t, srv, client, req, len(":1\r\n"))
	}

	got := roundTrip(t, srv, client, "*3\r\n$4\r\nSADD\r\n$1\r\ns\r\n$5\r\nhello\r\n", len(":1\r\n"))
	require.Equal(t, ":1\r\n", string(got))

	want := ":201\r\n"
	got = roundTrip(t, srv, client, "*2\r\n$5\r\nSCARD\r\n$1\r\ns\r\n", len(want))
	require.Equal(t, want, string(got))
}
