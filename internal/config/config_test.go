package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDirectivesOverlaysDefaults(t *testing.T) {
	cfg := Default()
	body := `
# comment line, ignored
bind 10.0.0.1
port 7000
maxmemory 256mb
save 60 1000
save 300 10
requirepass s3cret
slaveof 10.0.0.2 6380
daemonize yes
`
	require.NoError(t, parseDirectives(cfg, strings.NewReader(body)))

	require.Equal(t, "10.0.0.1", cfg.Host)
	require.Equal(t, 7000, cfg.Port)
	require.Equal(t, uint64(256*1024*1024), uint64(cfg.MaxMemory))
	require.Equal(t, "s3cret", cfg.RequirePass)
	require.True(t, cfg.Daemonize)
	require.Equal(t, "replica", cfg.ReplicationRole)
	require.Equal(t, "10.0.0.2", cfg.ReplicationMasterHost)
	require.Equal(t, 6380, cfg.ReplicationMasterPort)

	require.Len(t, cfg.RDBSavePoints, 2)
	require.Equal(t, RDBSavePoint{Seconds: 60, Changes: 1000}, cfg.RDBSavePoints[0])
	require.Equal(t, RDBSavePoint{Seconds: 300, Changes: 10}, cfg.RDBSavePoints[1])
}

func TestParseDirectivesIgnoresUnknownDirective(t *testing.T) {
	cfg := Default()
	require.NoError(t, parseDirectives(cfg, strings.NewReader("some-future-directive value\nport 6400\n")))
	require.Equal(t, 6400, cfg.Port)
}

func TestParseDirectivesRejectsMalformedSave(t *testing.T) {
	cfg := Default()
	err := parseDirectives(cfg, strings.NewReader("save 60\n"))
	require.Error(t, err)
}
