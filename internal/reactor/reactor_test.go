package reactor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopFiresReadableCallback(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	l, err := New()
	require.NoError(t, err)

	done := make(chan struct{})
	err = l.Register(int(r.Fd()), &Callbacks{OnReadable: func() {
		buf := make([]byte, 5)
		n, _ := r.Read(buf)
		require.Equal(t, "hello", string(buf[:n]))
		l.Stop()
		close(done)
	}})
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte("hello"))
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readable callback never fired")
	}
	require.NoError(t, <-errCh)
}

// TestDispatchEventsDefersWritableWhenAlsoReadable covers spec.md §4.1
// point 3: a fd reported both readable and writable in the same poll batch
// only runs its read handler; the write handler is deferred to the next
// batch rather than running alongside it in this pass.
func TestDispatchEventsDefersWritableWhenAlsoReadable(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	var readCalled, writeCalled bool
	l.regs[7] = &Callbacks{
		OnReadable: func() { readCalled = true },
		OnWritable: func() { writeCalled = true },
	}

	l.dispatchEvents([]Event{{Fd: 7, Readable: true, Writable: true}})
	require.True(t, readCalled, "OnReadable must fire")
	require.False(t, writeCalled, "OnWritable must be deferred when the same fd is also readable this pass")

	l.dispatchEvents([]Event{{Fd: 7, Writable: true}})
	require.True(t, writeCalled, "OnWritable must fire once it is the only ready direction")
}

// TestDispatchEventsRunsWritableForUnrelatedFd ensures the deferral only
// applies to a fd that fired readable in the same batch — other fds'
// write handlers still run immediately.
func TestDispatchEventsRunsWritableForUnrelatedFd(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	var readCalled, otherWriteCalled bool
	l.regs[7] = &Callbacks{OnReadable: func() { readCalled = true }}
	l.regs[8] = &Callbacks{OnWritable: func() { otherWriteCalled = true }}

	l.dispatchEvents([]Event{
		{Fd: 7, Readable: true},
		{Fd: 8, Writable: true},
	})
	require.True(t, readCalled)
	require.True(t, otherWriteCalled)
}

func TestTimerQueueRunsDueAndReschedules(t *testing.T) {
	q := NewTimerQueue()
	fired := 0
	q.Add(100, func(now int64) int64 {
		fired++
		if fired < 3 {
			return 50
		}
		return 0
	})

	q.RunDue(100)
	require.Equal(t, 1, fired)
	at, ok := q.NextDeadline()
	require.True(t, ok)
	require.Equal(t, int64(150), at)

	q.RunDue(149)
	require.Equal(t, 1, fired)

	q.RunDue(200)
	require.Equal(t, 2, fired)

	q.RunDue(260)
	require.Equal(t, 3, fired)
	_, ok = q.NextDeadline()
	require.False(t, ok)
}
