package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  interval_seconds: 30
  min_profit_margin: 0.03
  dry_run: true
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.ScanInterval())
	assert.Equal(t, 0.03, cfg.Engine.MinProfitMargin)
	assert.True(t, cfg.Engine.DryRun)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Todo lo no especificado cae a los defaults
	assert.Equal(t, 60*time.Second, cfg.Cooldown())
	assert.Equal(t, 2*time.Minute, cfg.StaleMaxAge())
	assert.Equal(t, 0.5, cfg.Engine.StopLossPct)
	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "arbot.db", cfg.Storage.DSN)
}

func TestLoad_BacktestInheritsEngineValues(t *testing.T) {
	path := writeConfig(t, `
engine:
  min_profit_margin: 0.04
  capital_per_trade: 250
  cooldown_seconds: 90
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.04, cfg.Backtest.MinProfitMargin)
	assert.Equal(t, 250.0, cfg.Backtest.CapitalPerTrade)
	assert.Equal(t, 90.0, cfg.Backtest.CooldownSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "0xdeadbeef")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("ARBOT_DSN", ":memory:")

	path := writeConfig(t, `
log:
  format: text
storage:
  dsn: arbot.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0xdeadbeef", cfg.Trading.PrivateKey)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
