//go:build linux

package server

import (
	"fmt"
	"math/rand"
	"net"

	"golang.org/x/sys/unix"

	"redisd/internal/db"
	"redisd/internal/rdb"
	"redisd/internal/reactor"
)

// listen opens the non-blocking listening socket directly via
// golang.org/x/sys/unix rather than net.Listen, so its fd can be handed
// straight to the epoll poller instead of Go's runtime netpoller fighting
// over the same descriptor. Grounded on the same raw accept/read/write
// style the entertainment-venue-rcproxy eventloop reference uses for its
// backend connections.
func (s *Server) listen() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("server: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("server: setsockopt: %w", err)
	}

	addr, err := resolveIPv4(s.cfg.Host)
	if err != nil {
		unix.Close(fd)
		return err
	}
	sa := &unix.SockaddrInet4{Port: s.cfg.Port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("server: bind %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	if err := unix.Listen(fd, 511); err != nil {
		unix.Close(fd)
		return fmt.Errorf("server: listen: %w", err)
	}

	s.listenFd = fd
	return s.loop.Register(fd, &reactor.Callbacks{OnReadable: s.acceptAll})
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	ip := net.ParseIP(host)
	if ip == nil {
		if host == "" {
			return [4]byte{0, 0, 0, 0}, nil
		}
		return out, fmt.Errorf("server: invalid bind host %q", host)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return out, fmt.Errorf("server: only IPv4 binds are supported, got %q", host)
	}
	copy(out[:], ip4)
	return out, nil
}

// acceptAll drains every pending connection in one epoll-readable
// notification (level-triggered epoll would just re-fire immediately
// otherwise), rejecting past cfg.MaxConnections the same way the
// teacher's acceptConnections does.
func (s *Server) acceptAll() {
	for {
		connFd, _, err := unix.Accept4(s.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			return
		}

		if len(s.clients) >= s.cfg.MaxConnections {
			s.logger.Warn().Int("max_connections", s.cfg.MaxConnections).Msg("rejecting connection: at capacity")
			unix.Close(connFd)
			continue
		}

		conn := NewConn(s)
		conn.fd = connFd
		cc := &clientConn{fd: connFd, conn: conn}
		s.clients[connFd] = cc

		if err := s.loop.Register(connFd, &reactor.Callbacks{
			OnReadable: func() { s.onClientReadable(cc) },
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to register client fd")
			unix.Close(connFd)
			delete(s.clients, connFd)
		}
	}
}

func (s *Server) onClientReadable(cc *clientConn) {
	var buf [readBufSize]byte
	for {
		n, err := unix.Read(cc.fd, buf[:])
		if n > 0 {
			out, closeConn := cc.conn.Feed(buf[:n], db.NowMillis())
			if len(out) > 0 {
				cc.outbuf = append(cc.outbuf, out...)
			}
			s.flush(cc)
			if closeConn {
				s.closeClient(cc)
				return
			}
		}
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			// A real read error: the peer is gone. EOF (n == 0, err ==
			// nil) is handled just below.
			s.closeClient(cc)
			return
		}
		if n == 0 {
			s.closeClient(cc)
			return
		}
	}
}

func (s *Server) onClientWritable(cc *clientConn) {
	s.flush(cc)
	if len(cc.outbuf) == 0 {
		s.loop.DisableWrite(cc.fd)
		if cc.conn.closeAfter {
			s.closeClient(cc)
		}
	}
}

// flush writes as much of cc.outbuf as the socket accepts right now,
// discarding the written prefix and arming the writable watch for
// whatever remains.
func (s *Server) flush(cc *clientConn) {
	for len(cc.outbuf) > 0 {
		n, err := unix.Write(cc.fd, cc.outbuf)
		if n > 0 {
			cc.outbuf = cc.outbuf[n:]
		}
		if err != nil {
			if err == unix.EAGAIN {
				s.loop.EnableWrite(cc.fd, func() { s.onClientWritable(cc) })
				return
			}
			s.closeClient(cc)
			return
		}
		if n == 0 {
			break
		}
	}
}

// queueOutput is the output sink handed to replication.Feed for slaves
// and monitors: it may fire from within a command dispatch running on
// behalf of a *different* connection, so it only ever buffers and kicks
// the writable watcher — never calls unix.Write inline from an arbitrary
// call stack depth.
func (s *Server) queueOutput(c *Conn, b []byte) {
	cc, ok := s.clients[c.fd]
	if !ok {
		return
	}
	cc.outbuf = append(cc.outbuf, b...)
	s.flush(cc)
	if len(cc.outbuf) > 0 {
		s.loop.EnableWrite(cc.fd, func() { s.onClientWritable(cc) })
	}
}

func (s *Server) closeClient(cc *clientConn) {
	if cc.conn.replicaID != -1 {
		s.feed.Detach(cc.conn.replicaID)
	}
	s.loop.Unregister(cc.fd)
	unix.Close(cc.fd)
	delete(s.clients, cc.fd)
}

// registerCron wires the periodic housekeeping tasks spec.md §4.1 and
// §4.4 describe onto the reactor's timer queue: active expiration
// sampling, incremental-rehash ticks, idle-client reaping, and
// threshold-triggered background saves. Grounded on the teacher's
// serverCron (a single ticker driving all of these in redis_server.go),
// split into independently-scheduled timers since the reactor already
// gives every timer its own deadline instead of one shared tick.
func (s *Server) registerCron() {
	interval := s.cfg.TickInterval.Milliseconds()
	if interval <= 0 {
		interval = 100
	}
	now := db.NowMillis()
	timers := s.loop.Timers()

	timers.Add(now+interval, func(nowMs int64) int64 {
		s.engine.Keyspace().ActiveExpireCycle(20, 10, nowMs)
		return interval
	})

	timers.Add(now+interval, func(nowMs int64) int64 {
		s.engine.Keyspace().RehashTick(1)
		return interval
	})

	if s.cfg.IdleTimeout > 0 {
		idleMs := s.cfg.IdleTimeout.Milliseconds()
		timers.Add(now+interval, func(nowMs int64) int64 {
			s.reapIdleClients(nowMs, idleMs)
			return interval
		})
	}

	if len(s.cfg.RDBSavePoints) > 0 && s.cfg.RDBFilepath != "" {
		timers.Add(now+interval, func(nowMs int64) int64 {
			s.maybeAutoSave(nowMs)
			return interval
		})
	}

	if s.cfg.MaxMemory != 0 {
		limit := int64(s.cfg.MaxMemory)
		timers.Add(now+interval, func(nowMs int64) int64 {
			s.engine.Keyspace().EvictUntilUnderLimit(limit, func() int64 { return int64(usedBytes()) }, rand.Intn)
			return interval
		})
	}
}

func (s *Server) reapIdleClients(nowMs, idleMs int64) {
	for _, cc := range s.clients {
		if nowMs-cc.conn.lastActive > idleMs {
			s.closeClient(cc)
		}
	}
}

// maybeAutoSave triggers a snapshot once any configured save point's
// (seconds, changes) threshold is satisfied, mirroring the teacher's
// RDBSavePoint loop in redis_server.go's background-save ticker.
func (s *Server) maybeAutoSave(nowMs int64) {
	dirtySince := s.engine.Dirty() - s.dirtyAtLastSave
	if dirtySince <= 0 {
		return
	}
	elapsedSec := nowMs/1000 - s.lastSaveAt
	for _, sp := range s.cfg.RDBSavePoints {
		if elapsedSec >= int64(sp.Seconds) && dirtySince >= sp.Changes {
			if err := rdb.Save(s.engine.Keyspace(), s.cfg.RDBFilepath); err != nil {
				s.logger.Error().Err(err).Msg("background save failed")
				return
			}
			s.noteSaved()
			s.logger.Info().Int64("dirty", dirtySince).Msg("background save complete")
			return
		}
	}
}
