// Package config parses server configuration from an optional redis.conf
// style directive file plus CLI flags, grounded on the teacher's
// cmd/server/main.go flag wiring (host/port/replication flags), generalized
// onto github.com/spf13/pflag for POSIX-style double-dash flags and
// github.com/c2h5oh/datasize for human-readable memory sizes (maxmemory
// 100mb), neither of which the teacher's stdlib-flag main.go used but which
// the example pack carries for exactly this kind of server config surface.
// Precedence follows spec.md §6: defaults, then the config file (if any),
// then CLI flags, each overlaying the last.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	flag "github.com/spf13/pflag"
)

// RDBSavePoint mirrors the teacher's save-trigger pair: a background save
// fires once at least Seconds have passed since the last save and the
// dirty counter has advanced by at least Changes since then.
type RDBSavePoint struct {
	Seconds int
	Changes int64
}

// Config is the full set of server knobs, assembled from defaults, an
// optional config file, and CLI flag overrides in that precedence order.
type Config struct {
	Host string
	Port int

	Databases int

	MaxMemory      datasize.ByteSize
	MaxConnections int

	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
	TickInterval time.Duration

	RDBFilepath   string
	RDBSavePoints []RDBSavePoint

	ReplicationRole       string // "master" or "replica"
	ReplicationMasterHost string
	ReplicationMasterPort int

	LogLevel string
	LogFile  string

	RequirePass   string
	Daemonize     bool
	GlueOutputBuf bool
}

// Default returns the teacher-style baked-in defaults (16 databases, no
// memory cap, hourly-ish save cadence) before any flag is parsed.
func Default() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           6379,
		Databases:      16,
		MaxMemory:      0,
		MaxConnections: 10000,
		ReadTimeout:     5 * time.Second,
		IdleTimeout:     0,
		TickInterval:    100 * time.Millisecond,
		RDBFilepath:     "dump.rdb",
		RDBSavePoints: []RDBSavePoint{
			{Seconds: 3600, Changes: 1},
			{Seconds: 300, Changes: 100},
			{Seconds: 60, Changes: 10000},
		},
		ReplicationRole: "master",
		LogLevel:        "info",
	}
}

// ParseFlags overlays cfg with CLI flag values from args (typically
// os.Args[1:]).
func ParseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("redisd", flag.ContinueOnError)

	host := fs.String("host", cfg.Host, "address to bind to")
	port := fs.Int("port", cfg.Port, "port to listen on")
	databases := fs.Int("databases", cfg.Databases, "number of logical databases")
	maxMemory := fs.String("maxmemory", cfg.MaxMemory.HumanReadable(), "eviction threshold, e.g. 256mb (0 disables)")
	maxConnections := fs.Int("max-connections", cfg.MaxConnections, "maximum concurrent client connections")
	rdbPath := fs.String("rdb-filepath", cfg.RDBFilepath, "path to the snapshot file")
	replRole := fs.String("replication-role", cfg.ReplicationRole, "master or replica")
	replHost := fs.String("replicaof-host", cfg.ReplicationMasterHost, "master host, when replication-role=replica")
	replPort := fs.Int("replicaof-port", cfg.ReplicationMasterPort, "master port, when replication-role=replica")
	logLevel := fs.String("log-level", cfg.LogLevel, "zerolog level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var mem datasize.ByteSize
	if err := mem.UnmarshalText([]byte(*maxMemory)); err != nil {
		return fmt.Errorf("config: invalid maxmemory %q: %w", *maxMemory, err)
	}

	cfg.Host = *host
	cfg.Port = *port
	cfg.Databases = *databases
	cfg.MaxMemory = mem
	cfg.MaxConnections = *maxConnections
	cfg.RDBFilepath = *rdbPath
	cfg.ReplicationRole = *replRole
	cfg.ReplicationMasterHost = *replHost
	cfg.ReplicationMasterPort = *replPort
	cfg.LogLevel = *logLevel
	return nil
}

// ParseFile overlays cfg with directives read from a redis.conf-style
// config file: one directive per line, whitespace-separated, "#" starts a
// comment, blank lines ignored. Mirrors spec.md §6's directive set; ParseFlags
// is applied after ParseFile by the caller so CLI flags win ties, matching
// spec.md §6's invocation contract ("server [config-path | --key value ...]").
func ParseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return parseDirectives(cfg, f)
}

func parseDirectives(cfg *Config, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sawSave := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		directive := strings.ToLower(fields[0])
		args := fields[1:]
		if directive == "save" && !sawSave {
			// The file's first "save" line replaces the baked-in
			// defaults rather than appending to them, matching
			// redis.conf's convention for a fully custom save schedule.
			cfg.RDBSavePoints = nil
			sawSave = true
		}
		if err := applyDirective(cfg, directive, args); err != nil {
			return fmt.Errorf("config: %s: %w", directive, err)
		}
	}
	return sc.Err()
}

func applyDirective(cfg *Config, directive string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing value")
	}
	switch directive {
	case "bind":
		cfg.Host = args[0]
	case "port":
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		cfg.Port = n
	case "databases":
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		cfg.Databases = n
	case "maxmemory":
		var mem datasize.ByteSize
		if err := mem.UnmarshalText([]byte(args[0])); err != nil {
			return err
		}
		cfg.MaxMemory = mem
	case "maxclients":
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		cfg.MaxConnections = n
	case "timeout":
		secs, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		cfg.IdleTimeout = time.Duration(secs) * time.Second
	case "loglevel":
		cfg.LogLevel = args[0]
	case "logfile":
		// spec.md §6 names logfile for redirecting log output; the
		// zerolog ConsoleWriter destination switch lives in cmd/server,
		// so just note the path on Config for main.go to act on.
		cfg.LogFile = args[0]
	case "dbfilename":
		cfg.RDBFilepath = args[0]
	case "save":
		if len(args) != 2 {
			return fmt.Errorf("expected 'save <seconds> <changes>'")
		}
		secs, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		changes, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}
		cfg.RDBSavePoints = append(cfg.RDBSavePoints, RDBSavePoint{Seconds: secs, Changes: changes})
	case "requirepass":
		cfg.RequirePass = args[0]
	case "slaveof", "replicaof":
		if len(args) != 2 {
			return fmt.Errorf("expected 'slaveof <host> <port>'")
		}
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		cfg.ReplicationRole = "replica"
		cfg.ReplicationMasterHost = args[0]
		cfg.ReplicationMasterPort = port
	case "daemonize":
		cfg.Daemonize = strings.EqualFold(args[0], "yes")
	case "glueoutputbuf":
		cfg.GlueOutputBuf = strings.EqualFold(args[0], "yes")
	default:
		// Unknown directives are ignored rather than rejected, so a
		// config file written for a newer/older build still loads.
	}
	return nil
}
