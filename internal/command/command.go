// Package command implements the command table and dispatch engine: arity
// validation, per-type handlers, and reply assembly on top of internal/db
// and internal/object. Grounded on the teacher's internal/handler package
// (CommandFunc map, handleXxx per command, registerCommands wiring) and
// internal/processor's command-type constants, collapsed into a single
// package because the reactor model removes the processor goroutine's
// channel handoff: a handler now runs synchronously to completion within
// one reactor iteration, per spec.md §4.1's single-threaded guarantee.
package command

import (
	"strings"

	"redisd/internal/db"
	"redisd/internal/resp"
)

// Client is the command-dispatch view of a connection: just enough state
// to pick a database and to let commands like SELECT mutate it. The
// reactor/server layer owns everything else (the socket, output buffer).
type Client struct {
	DBIndex int
	Name    string // connection name; no command in this module sets it
}

// Handler executes one command against e/c/args and appends its reply
// wire bytes to buf, returning the extended buffer. now is the single
// clock read taken for the whole command, per db.NowMillis's contract.
type Handler func(e *Engine, c *Client, args [][]byte, now int64, buf []byte) []byte

// spec describes one command's dispatch metadata, mirroring the teacher's
// per-command validation inlined at the top of each handleXxx function,
// centralized here instead so arity/flag checking is never duplicated.
type spec struct {
	name    string
	arity   int // positive: exact argc; negative: minimum argc (-n means "at least n")
	write   bool
	denyOOM bool // spec.md §4.6's DENY_OOM flag: rejected while memory pressure is active
	handler Handler
}

// Engine holds the command table and the keyspace it dispatches against.
// One Engine is shared by every client connection (single-threaded reactor
// means no locking is required for either).
type Engine struct {
	ks       *db.Keyspace
	table    map[string]spec
	dirty    int64
	commands int64

	// Propagate is invoked with a write command's argument vector after its
	// handler has advanced the dirty counter, so the replication feed (wired
	// at the server layer) never sees read commands or writes that returned
	// without marking the keyspace dirty. Some handlers (SREM, HDEL, ZREM,
	// LREM, ...) mark it dirty even when they removed nothing, and those
	// calls are propagated too.
	Propagate func(dbIndex int, args [][]byte)

	// OOMCheck reports whether memory pressure is currently active (wired at
	// the server layer against cfg.MaxMemory). Dispatch consults it only for
	// commands registered with denyOOM, per spec.md §4.6.
	OOMCheck func() bool
}

// NewEngine builds the dispatch table over ks.
func NewEngine(ks *db.Keyspace) *Engine {
	e := &Engine{ks: ks, table: make(map[string]spec)}
	e.registerAdmin()
	e.registerString()
	e.registerList()
	e.registerSet()
	e.registerHash()
	e.registerZSet()
	return e
}

func (e *Engine) register(name string, arity int, write bool, h Handler) {
	e.table[name] = spec{name: name, arity: arity, write: write, handler: h}
}

// registerOOM is register plus the DENY_OOM flag (spec.md §4.6), for write
// commands that can grow memory usage.
func (e *Engine) registerOOM(name string, arity int, h Handler) {
	e.table[name] = spec{name: name, arity: arity, write: true, denyOOM: true, handler: h}
}

// Dispatch looks up args[0] as a command name and runs it, appending the
// reply to buf. args must be non-empty; the caller (the RESP/server layer)
// is responsible for skipping empty inline pings.
func (e *Engine) Dispatch(c *Client, args [][]byte, now int64, buf []byte) []byte {
	e.commands++
	name := strings.ToLower(string(args[0]))
	s, ok := e.table[name]
	if !ok {
		return resp.AppendError(buf, "ERR unknown command '"+string(args[0])+"'")
	}
	if !arityOK(s.arity, len(args)) {
		return resp.AppendError(buf, "ERR wrong number of arguments for '"+name+"' command")
	}
	if s.denyOOM && e.OOMCheck != nil && e.OOMCheck() {
		return resp.AppendError(buf, "ERR command not allowed when used memory > 'maxmemory'")
	}
	dirtyBefore := e.dirty
	out := s.handler(e, c, args, now, buf)
	if s.write && e.dirty != dirtyBefore && e.Propagate != nil {
		e.Propagate(c.DBIndex, args)
	}
	return out
}

func arityOK(arity, argc int) bool {
	if arity >= 0 {
		return argc == arity
	}
	return argc >= -arity
}

// DB resolves the client's selected database.
func (e *Engine) DB(c *Client) *db.DB { return e.ks.DB(c.DBIndex) }

// markDirty records that a write command changed the keyspace, driving
// both replication propagation and (eventually) the background-save
// dirty-counter threshold from spec.md §4.7.
func (e *Engine) markDirty(n int64) { e.dirty += n }

// Dirty reports the cumulative dirty counter, for SAVE-threshold checks.
func (e *Engine) Dirty() int64 { return e.dirty }

// Keyspace exposes the underlying keyspace for server-level wiring
// (active expiration cron, rehash ticks, RDB snapshotting).
func (e *Engine) Keyspace() *db.Keyspace { return e.ks }
