package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.WeeklyXpEnabled)
	assert.Equal(t, 15, cfg.WeeklyXpExpirationDays)
}

func TestLoad_RedisRequiredOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_RejectsNonPositiveExpiration(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("WEEKLY_XP_EXPIRATION_DAYS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEEKLY_XP_EXPIRATION_DAYS")
}

func TestWeeklyXpSnapshot(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("WEEKLY_XP_ENABLED", "false")
	t.Setenv("WEEKLY_XP_EXPIRATION_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	snapshot := cfg.WeeklyXp()
	assert.False(t, snapshot.Enabled)
	assert.Equal(t, 7, snapshot.ExpirationTimeInDays)
}
