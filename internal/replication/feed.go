// Package replication implements the master-side command feed: once a
// slave or monitor has attached, every write command is streamed to it,
// prepending a SELECT frame whenever the executing client's database
// differs from what the slave last saw. Grounded on the teacher's
// internal/replication/replication.go (ReplicaInfo/slave tracking,
// per-replica selected-db field) but with the PSYNC handshake, partial
// resync backlog, and replica-as-client (MasterInfo) halves removed: the
// "sync with master" bootstrap is a named spec.md Non-goal, and the
// teacher's goroutine-per-replica connection model cannot survive the
// single-threaded reactor rewrite (spec.md §5) — a slave here is just
// another registered fd whose only special behavior is receiving the
// propagated stream instead of replies to its own requests.
package replication

import (
	"strconv"

	"redisd/internal/resp"
)

// Slave is one attached replica or monitor connection, tracked only by
// the output sink the server layer gives it (an append-to-write-buffer
// closure) and, for replicas, which logical database it last received a
// SELECT for.
type Slave struct {
	ID         int64
	SelectedDB int
	IsMonitor  bool
	Output     func(b []byte)
}

// Feed fans a master's write stream out to its attached slaves and
// monitors. One Feed per server; never touched off the reactor goroutine.
type Feed struct {
	slaves map[int64]*Slave
	nextID int64
}

// New returns an empty feed.
func New() *Feed { return &Feed{slaves: make(map[int64]*Slave)} }

// Attach registers a new replica (selectedDB starts at -1 so the first
// propagated command always gets a SELECT prepended, matching the
// teacher's "slave_selected_db starts unknown" initialization).
func (f *Feed) Attach(output func([]byte)) int64 {
	f.nextID++
	f.slaves[f.nextID] = &Slave{ID: f.nextID, SelectedDB: -1, Output: output}
	return f.nextID
}

// AttachMonitor registers a MONITOR client, which receives a
// human-readable line per executed command rather than the replicated
// RESP stream.
func (f *Feed) AttachMonitor(output func([]byte)) int64 {
	f.nextID++
	f.slaves[f.nextID] = &Slave{ID: f.nextID, SelectedDB: -1, IsMonitor: true, Output: output}
	return f.nextID
}

// Detach removes a slave or monitor (connection closed).
func (f *Feed) Detach(id int64) { delete(f.slaves, id) }

// Count reports the number of attached slaves and monitors.
func (f *Feed) Count() int { return len(f.slaves) }

// Propagate is the command engine's write hook: send args to every
// replica (with a SELECT prefix on db change) and a formatted line to
// every monitor.
func (f *Feed) Propagate(dbIndex int, args [][]byte) {
	if len(f.slaves) == 0 {
		return
	}
	encoded := resp.AppendBulkArray(nil, args)
	for _, s := range f.slaves {
		if s.IsMonitor {
			s.Output(formatMonitorLine(dbIndex, args))
			continue
		}
		if s.SelectedDB != dbIndex {
			s.Output(resp.AppendBulkArray(nil, [][]byte{[]byte("SELECT"), []byte(strconv.Itoa(dbIndex))}))
			s.SelectedDB = dbIndex
		}
		s.Output(encoded)
	}
}

// formatMonitorLine renders a command the way MONITOR clients expect:
// `+<db> "CMD" "arg1" "arg2"...\r\n`, quoting each argument.
func formatMonitorLine(dbIndex int, args [][]byte) []byte {
	buf := append([]byte{'+'}, strconv.Itoa(dbIndex)...)
	buf = append(buf, ' ')
	for i, a := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, '"')
		buf = append(buf, a...)
		buf = append(buf, '"')
	}
	return append(buf, '\r', '\n')
}
