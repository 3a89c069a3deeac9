package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/shiftwell.db", cfg.DatabasePath)
	assert.Equal(t, 30, cfg.HorizonDays)
	assert.Equal(t, 64, cfg.NotifyCapacity)
	assert.Empty(t, cfg.TelegramToken)
	assert.Zero(t, cfg.TelegramChatID)
	assert.Empty(t, cfg.CalDAVURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NotNil(t, cfg.Timezone)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/shiftwell-test.db")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("HORIZON_DAYS", "14")
	t.Setenv("NOTIFY_CAPACITY", "32")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "456789")
	t.Setenv("CALDAV_URL", "https://dav.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/shiftwell-test.db", cfg.DatabasePath)
	assert.Equal(t, "UTC", cfg.Timezone.String())
	assert.Equal(t, 14, cfg.HorizonDays)
	assert.Equal(t, 32, cfg.NotifyCapacity)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(456789), cfg.TelegramChatID)
	assert.Equal(t, "https://dav.example.com", cfg.CalDAVURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("TIMEZONE", "Nowhere/Nothing")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("horizon not a number", func(t *testing.T) {
		t.Setenv("HORIZON_DAYS", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("horizon non-positive", func(t *testing.T) {
		t.Setenv("HORIZON_DAYS", "0")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("capacity non-positive", func(t *testing.T) {
		t.Setenv("NOTIFY_CAPACITY", "-1")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("chat id", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
		_, err := Load()
		assert.Error(t, err)
	})
}
