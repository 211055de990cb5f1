// Package server wires internal/reactor, internal/command,
// internal/db, internal/rdb, and internal/replication into a running
// process: listener accept loop, per-connection I/O, periodic cron
// tasks, and signal-driven shutdown. Grounded on the teacher's
// internal/server/redis_server.go (RedisServer wiring store through
// processor through handler, background RDB-save ticker, graceful
// Shutdown with a bounded drain wait) but rebuilt around one reactor
// goroutine instead of one goroutine per connection plus a ticker
// goroutine, per spec.md §5.
package server

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"redisd/internal/command"
	"redisd/internal/config"
	"redisd/internal/db"
	"redisd/internal/rdb"
	"redisd/internal/reactor"
	"redisd/internal/replication"
)

const readBufSize = 64 * 1024

// Server owns every long-lived piece of a running instance. All of its
// state is touched only from the reactor goroutine once Run starts,
// mirroring spec.md §5's "single-threaded cooperative, no locks on the
// keyspace" model; Stop (called from a signal handler) is the one
// method safe to call from another goroutine, by way of Loop.Stop.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger

	loop   *reactor.Loop
	engine *command.Engine
	feed   *replication.Feed

	listenFd int
	clients  map[int]*clientConn

	lastSaveAt    int64 // unix seconds
	dirtyAtLastSave int64
}

// clientConn pairs a transport-agnostic Conn with the raw fd and
// whatever output the Conn (or an async replication/monitor feed) has
// queued but not yet been able to write.
type clientConn struct {
	fd     int
	conn   *Conn
	outbuf []byte
}

// New builds a Server from cfg, loading an existing snapshot if one is
// present at cfg.RDBFilepath (mirroring the teacher's loadRDB-on-start
// step in NewRedisServer).
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	loop, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	ks, loaded := loadSnapshot(cfg, logger)
	if !loaded {
		ks = db.NewKeyspace(cfg.Databases)
	}

	feed := replication.New()
	engine := command.NewEngine(ks)
	engine.Propagate = feed.Propagate
	if cfg.MaxMemory != 0 {
		limit := uint64(cfg.MaxMemory)
		engine.OOMCheck = func() bool { return usedBytes() > limit }
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		loop:    loop,
		engine:  engine,
		feed:    feed,
		clients: make(map[int]*clientConn),
	}, nil
}

func loadSnapshot(cfg *config.Config, logger zerolog.Logger) (*db.Keyspace, bool) {
	if cfg.RDBFilepath == "" {
		return nil, false
	}
	ks, err := rdb.Load(cfg.RDBFilepath, cfg.Databases)
	if err != nil {
		logger.Info().Str("path", cfg.RDBFilepath).Err(err).Msg("no snapshot loaded, starting empty")
		return nil, false
	}
	logger.Info().Str("path", cfg.RDBFilepath).Msg("snapshot loaded")
	return ks, true
}

// Run opens the listening socket, registers cron timers, and blocks in
// the reactor loop until Stop is called.
func (s *Server) Run() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.registerCron()
	s.logger.Info().Str("host", s.cfg.Host).Int("port", s.cfg.Port).Msg("listening")
	if err := s.loop.Run(); err != nil {
		return err
	}
	// spec.md §5: the reactor observes the shutdown flag between
	// iterations and takes a foreground snapshot before exiting.
	s.finalSnapshot()
	return nil
}

// Stop requests a graceful shutdown; safe to call from a signal handler
// goroutine (delegates to Loop.Stop, which is itself goroutine-safe).
func (s *Server) Stop() { s.loop.Stop() }

func (s *Server) finalSnapshot() {
	if s.cfg.RDBFilepath == "" {
		return
	}
	if err := rdb.Save(s.engine.Keyspace(), s.cfg.RDBFilepath); err != nil {
		s.logger.Error().Err(err).Msg("final snapshot failed")
		return
	}
	s.logger.Info().Msg("final snapshot written")
}

// usedBytes reports the process's current Go heap allocation, used as the
// memory-pressure signal for spec.md §4.4/§4.6's maxmemory enforcement.
func usedBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Alloc
}

func (s *Server) clientCount() int { return len(s.clients) }

func (s *Server) lastSaveUnix() int64 { return s.lastSaveAt }

func (s *Server) noteSaved() {
	s.lastSaveAt = db.NowMillis() / 1000
	s.dirtyAtLastSave = s.engine.Dirty()
}
