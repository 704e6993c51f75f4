package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: custom.db
server:
  port: 9090
rates:
  default_currency: EUR
  cache_ttl: 1h
matching:
  auto_max_days: 5
  manual_tolerance: 0.15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "EUR", cfg.Rates.DefaultCurrency)
	assert.Equal(t, 5, cfg.Matching.AutoMaxDays)
	assert.Equal(t, 0.15, cfg.Matching.ManualTolerance)
	assert.Equal(t, time.Hour, cfg.Rates.CacheTTL.Std())
	// Untouched sections keep their defaults
	assert.Equal(t, 8, cfg.Matching.ManualMaxDays)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_DB_DIR", "/var/data")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  database_path: ${TEST_DB_DIR}/finlink.db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/data/finlink.db", cfg.Storage.DatabasePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FINLINK_DB_PATH", "test.db")
	t.Setenv("FINLINK_DEFAULT_CURRENCY", "GBP")
	t.Setenv("FINLINK_AUTO_MAX_DAYS", "3")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "GBP", cfg.Rates.DefaultCurrency)
	assert.Equal(t, 3, cfg.Matching.AutoMaxDays)
}

func TestLoadOrEnvFallsBack(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, cfg)
	assert.Equal(t, "finlink.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 7, cfg.Matching.AutoMaxDays)
	assert.Equal(t, 0.12, cfg.Matching.ManualTolerance)
}
