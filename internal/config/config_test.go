package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv 確保測試不受外部環境變數影響，結束後自動還原
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvGRPCAddr, EnvMetricsAddr, EnvStore, EnvLogLevel, EnvPostgresDSN} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
grpc:
  addr: ":6000"
store:
  kind: MySQL
mysql:
  host: db
  conn_max_lifetime: 5m
income:
  static:
    88224979-0001-4e32-9458-55836e4e1f95: 675699
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.GRPC.Addr)
	assert.Equal(t, StoreMySQL, cfg.Store.Kind)
	assert.Equal(t, "db", cfg.MySQL.Host)
	assert.Equal(t, 5*time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, IncomeStatic, cfg.Income.Kind)
	assert.Equal(t, int64(675699), cfg.Income.Static["88224979-0001-4e32-9458-55836e4e1f95"])
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.False(t, cfg.Metrics.Disabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, "wal.log", cfg.Store.WALPath)
	assert.Equal(t, "data/badger", cfg.Store.BadgerDir)
	assert.Equal(t, IncomeStatic, cfg.Income.Kind)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "grpc:\n  addr: \":6000\"\nstore:\n  kind: mysql\n")
	t.Setenv(EnvGRPCAddr, ":7000")
	t.Setenv(EnvStore, "badger")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvPostgresDSN, "postgres://stats@localhost/stats")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.GRPC.Addr)
	assert.Equal(t, StoreBadger, cfg.Store.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, IncomePostgres, cfg.Income.Kind)
	assert.Equal(t, "postgres://stats@localhost/stats", cfg.Income.PostgresDSN)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "LEDGER_METRICS_ADDR=:9999\n")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.yaml", "grpc: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Kind = "redis" }, wantErr: true},
		{name: "unknown income", mutate: func(c *Config) { c.Income.Kind = "csv" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Income.Kind = IncomePostgres }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoad_MetricsCanBeDisabled(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "metrics:\n  disabled: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Disabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}
