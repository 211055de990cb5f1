package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"redisd/internal/config"
	"redisd/internal/server"
)

func main() {
	cfg := config.Default()

	// spec.md §6: "server [config-path | --key value ...]" — a bare
	// leading positional argument (one that doesn't start with "-") names
	// a directive file to load before CLI flags are parsed, so flags can
	// still override individual keys from it.
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if err := config.ParseFile(cfg, args[0]); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(2)
		}
		args = args[1:]
	}

	if err := config.ParseFlags(cfg, args); err != nil {
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	if cfg.LogFile != "" {
		// logfile mode: JSON lines appended to the file instead of the
		// console writer on stderr.
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(2)
		}
		logger = logger.Output(f)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// spec.md §5: SIGTERM/SIGINT set the shutdown flag; SIGPIPE/SIGHUP
	// are ignored rather than left at their default (process-killing for
	// SIGPIPE on a half-closed client socket).
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Stop()
	}()

	logger.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("starting redisd")
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
