package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 3307, User: "ledger", Password: "secret", DBName: "interest"}
	assert.Equal(t, "ledger:secret@tcp(127.0.0.1:3307)/interest?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{MaxOpenConns: 5}
	cfg.ApplyDefaults()

	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, 5, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.ConnectRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryInterval)
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, newLogger("info"))
	assert.NotNil(t, newLogger("unknown"))
	assert.NotNil(t, newLogger("silent"))
}
