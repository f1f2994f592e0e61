package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"APP_ENV", "HTTP_PORT", "DATABASE_URL", "APP_MIGRATE", "STORE", "RATE_RPS", "WORKERS",
	"LOCK_BACKEND", "REDIS_ADDR", "LOCK_EXPIRY", "LOCK_TRIES", "LOCK_RETRY_DELAY",
}

// clearEnv unsets every key for the test; t.Setenv restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, LockLocal, cfg.LockBackend)
	assert.Equal(t, 100, cfg.RateRPS)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 15*time.Second, cfg.LockExpiry)
	assert.Equal(t, 30, cfg.LockTries)
	assert.Equal(t, 100*time.Millisecond, cfg.LockRetryDelay)
	assert.False(t, cfg.Migrate)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", StoreMemory)
	t.Setenv("LOCK_BACKEND", LockRedis)
	t.Setenv("LOCK_RETRY_DELAY", "250ms")
	t.Setenv("LOCK_TRIES", "7")
	t.Setenv("APP_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, LockRedis, cfg.LockBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.LockRetryDelay)
	assert.Equal(t, 7, cfg.LockTries)
	assert.True(t, cfg.Migrate)
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	tests := map[string]string{
		"WORKERS":      "not-a-number",
		"LOCK_EXPIRY":  "soon",
		"APP_MIGRATE":  "maybe",
		"STORE":        "sqlite",
		"LOCK_BACKEND": "etcd",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
