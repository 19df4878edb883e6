package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 8, cfg.Board.MaxNodes)
	require.Equal(t, 60, cfg.Board.DailyMinutes)
	require.Equal(t, 16, cfg.Board.TypeAheadCapacity)
	require.Equal(t, 400*time.Millisecond, cfg.Board.CeremonyDelay)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 5, cfg.Auth.LockoutThreshold)
	require.Equal(t, "@hourly", cfg.Maintenance.Schedule)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9000
board:
  name: "Midnight Tower"
  max_nodes: 4
  daily_minutes: 0
auth:
  lockout_window: 30m
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "Midnight Tower", cfg.Board.Name)
	require.Equal(t, 4, cfg.Board.MaxNodes)
	require.Equal(t, 0, cfg.Board.DailyMinutes)
	require.Equal(t, 30*time.Minute, cfg.Auth.LockoutWindow)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RETROLINE_SERVER_PORT", "8123")
	t.Setenv("RETROLINE_BOARD_NAME", "Env Board")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8123, cfg.Server.Port)
	require.Equal(t, "Env Board", cfg.Board.Name)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	bad := *cfg
	bad.Database.Driver = "oracle"
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Board.MaxNodes = 0
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Server.Port = -1
	require.Error(t, bad.Validate())
}
