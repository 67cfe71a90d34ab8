package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 7*24*60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 25*1024*1024, cfg.Upload.MaxBytes)
	assert.Equal(t, "helpdesk:events", cfg.Redis.EventQueueKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_DASHBOARD_TTL_SECONDS", "15")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, 15*time.Second, cfg.Redis.DashboardTTL())
	assert.True(t, cfg.Notification.PushEnabled())
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "x")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}
