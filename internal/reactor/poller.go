// Package reactor implements the single-threaded event loop: one
// goroutine multiplexing readiness of the listener socket and every
// client socket via epoll, plus a timer min-heap for periodic tasks, per
// spec.md §4.1.
//
// Grounded on golang.org/x/sys/unix usage in the entertainment-venue
// rcproxy reference eventloop (epoll registration, read-before-write
// ordering per iteration) and the teacher's goroutine-per-connection
// internal/server/redis_server.go, generalized down to one goroutine per
// spec.md §5 ("single-threaded cooperative... no locks required for
// keyspace access").
package reactor

import "time"

// Mask selects which readiness directions a handle is registered for.
type Mask uint8

const (
	Readable Mask = 1 << iota
	Writable
)

// Event reports one fd's readiness for one poll iteration.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
}

// Poller is the OS-specific readiness multiplexer. Add/Modify/Remove
// adjust a single fd's registered mask without disturbing others;
// re-registering mid-flight must not drop in-flight readiness, per
// spec.md §4.1's registration contract.
type Poller interface {
	Add(fd int, mask Mask) error
	Modify(fd int, mask Mask) error
	Remove(fd int) error
	// Wait blocks up to timeout for at least one ready fd, or returns
	// immediately with whatever is already ready. A negative timeout
	// blocks indefinitely (no timers pending).
	Wait(timeout time.Duration) ([]Event, error)
	Close() error
}
