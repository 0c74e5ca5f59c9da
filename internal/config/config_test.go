package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/staysearch/internal/config"
)

var managedKeys = []string{
	"SERVER_PORT", "DATABASE_URL", "DB_MAX_OPEN_CONNS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RATE_LIMIT_STORE", "RATE_LIMIT_PER_MINUTE",
	"SEARCH_PAGE_SIZE", "SEARCH_MAX_PAGE_SIZE", "SEARCH_BATCH_SIZE", "SEARCH_TIMEOUT_MS",
	"LOCATION_RESOLVER_URL", "LOCATION_RESOLVER_TIMEOUT_MS",
	"JWT_SECRET",
	"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "redis", cfg.RateLimit.Store)
	assert.Equal(t, 60, cfg.RateLimit.PerMinute)
	assert.Equal(t, "localhost:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, 100, cfg.Search.PageSize)
	assert.Equal(t, 100, cfg.Search.MaxPageSize)
	assert.Equal(t, 40, cfg.Search.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Locations.Timeout)
	assert.Empty(t, cfg.Locations.ResolverURL)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_STORE", "Memory")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("SEARCH_PAGE_SIZE", "200")
	t.Setenv("SEARCH_MAX_PAGE_SIZE", "250")
	t.Setenv("SEARCH_BATCH_SIZE", "8")
	t.Setenv("SEARCH_TIMEOUT_MS", "1500")
	t.Setenv("LOCATION_RESOLVER_URL", "http://locations.internal")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.RateLimit.Store)
	assert.Equal(t, 5, cfg.RateLimit.PerMinute)
	assert.Equal(t, 200, cfg.Search.PageSize)
	assert.Equal(t, 250, cfg.Search.MaxPageSize)
	assert.Equal(t, 8, cfg.Search.BatchSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Search.Timeout)
	assert.Equal(t, "http://locations.internal", cfg.Locations.ResolverURL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RATE_LIMIT_PER_MINUTE", "sixty"},
		{"REDIS_DB", "x"},
		{"SEARCH_PAGE_SIZE", "0"},
		{"SEARCH_PAGE_SIZE", "101"},
		{"SEARCH_MAX_PAGE_SIZE", "0"},
		{"SEARCH_BATCH_SIZE", "-1"},
		{"RATE_LIMIT_STORE", "memcached"},
		{"LOG_MAX_BACKUPS", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
