package resp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedCompleteBulkArray(t *testing.T) {
	p := NewParser()
	buf := []byte("*2\r\n$4\r\nPING\r\n$2\r\nhi\r\n")
	args, consumed, err := p.Feed(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, [][]byte{[]byte("PING"), []byte("hi")}, args)
}

func TestFeedRestartsAcrossPartialChunks(t *testing.T) {
	p := NewParser()
	full := []byte("*2\r\n$4\r\nPING\r\n$2\r\nhi\r\n")

	buf := append([]byte(nil), full[:5]...)
	_, _, err := p.Feed(buf)
	require.ErrorIs(t, err, ErrNotEnough)

	buf = append(buf, full[5:12]...)
	_, _, err = p.Feed(buf)
	require.ErrorIs(t, err, ErrNotEnough)

	buf = append(buf, full[12:]...)
	args, consumed, err := p.Feed(buf)
	require.NoError(t, err)
	require.Equal(t, len(full), consumed)
	require.Equal(t, [][]byte{[]byte("PING"), []byte("hi")}, args)
}

func TestFeedInline(t *testing.T) {
	p := NewParser()
	buf := []byte("PING\r\n")
	args, consumed, err := p.Feed(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, [][]byte{[]byte("PING")}, args)
}

func TestFeedRejectsOversizedMultibulk(t *testing.T) {
	p := NewParser()
	_, _, err := p.Feed([]byte("*99999999\r\n"))
	require.Error(t, err)
	var perr *ErrProtocol
	require.ErrorAs(t, err, &perr)
}

func TestAppendReplyRoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendBulkArray(buf, [][]byte{[]byte("x"), []byte("y"), []byte("z")})

	p := NewParser()
	args, consumed, err := p.Feed(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, [][]byte{[]byte("x"), []byte("y"), []byte("z")}, args)
}
