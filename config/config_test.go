package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("SAAF_DATABASE_DSN", "postgres://localhost/saaf_test")
	t.Setenv("SAAF_GATEWAY_SERVICE_TOKEN", "test-token")
	t.Setenv("SAAF_SERVER_PORT", "6000")
	t.Setenv("SAAF_REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/saaf_test", cfg.Database.DSN)
	assert.Equal(t, "test-token", cfg.Gateway.ServiceToken)
	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)

	// Untouched settings fall back to defaults.
	assert.Equal(t, 50, cfg.Server.BodyLimitMB)
	assert.Equal(t, time.Minute, cfg.Scheduler.ExpirySweepInterval)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.LeaderboardCacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_RequiresDSNAndServiceToken(t *testing.T) {
	t.Setenv("SAAF_DATABASE_DSN", "")
	t.Setenv("SAAF_GATEWAY_SERVICE_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")

	t.Setenv("SAAF_DATABASE_DSN", "postgres://localhost/saaf_test")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.service_token")
}
