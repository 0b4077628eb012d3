package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 640, cfg.Conversion.MaxDimension)
	assert.Equal(t, 60, cfg.Conversion.MaxDuration)
	assert.Equal(t, int64(8_389_000), cfg.Conversion.MaxSize)
	assert.Equal(t, time.Hour, cfg.Directory.TitleTTL)
	assert.Equal(t, 4*time.Second, cfg.Telegram.ActionInterval)
	assert.Equal(t, time.Minute, cfg.Directory.FailureTTL)
	assert.Empty(t, cfg.Directory.URL)
	assert.Empty(t, cfg.Analytics.MixpanelToken)
	assert.False(t, cfg.Analytics.StoreEvents)
	assert.False(t, cfg.AnalyticsEnabled(), "no token means no analytics")
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
	assert.Equal(t, DefaultEventPruneSchedule, cfg.Scheduler.Tasks["event_log_prune"].Schedule)
	assert.Contains(t, cfg.Messages, "en")
	assert.Contains(t, cfg.Messages, "ru")
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: file-token
  admin_user_id: 42
conversion:
  max_duration: 30
directory:
  url: https://example.com/chats.json
  title_ttl: 10m
messages:
  en:
    error: custom error
  de:
    error: Fehler
`)
	t.Setenv("BOT_LOGGER_LEVEL", "debug")
	t.Setenv("MIXPANEL_TOKEN", "mp-token")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(7))
	assert.Equal(t, 30, cfg.Conversion.MaxDuration)
	assert.Equal(t, 640, cfg.Conversion.MaxDimension)
	assert.Equal(t, 10*time.Minute, cfg.Directory.TitleTTL)
	assert.Equal(t, "https://example.com/chats.json", cfg.Directory.URL)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "mp-token", cfg.Analytics.MixpanelToken)

	assert.Equal(t, "custom error", cfg.Messages.For("en").Error)
	assert.Equal(t, DefaultCatalog()["en"].Size, cfg.Messages.For("en").Size)
	assert.Equal(t, "Fehler", cfg.Messages.For("de").Error)
	assert.Equal(t, DefaultCatalog()["en"].Help, cfg.Messages.For("de").Help)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing token", body: "logger:\n  level: info\n"},
		{name: "bad log level", body: "telegram:\n  token: t\nlogger:\n  level: loud\n"},
		{name: "bad directory url", body: "telegram:\n  token: t\ndirectory:\n  url: not a url\n"},
		{name: "zero dimension", body: "telegram:\n  token: t\nconversion:\n  max_dimension: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TELEGRAM_TOKEN", "")
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestCatalogFor(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	tests := []struct {
		code string
		want string
	}{
		{code: "ru", want: "ru"},
		{code: "RU", want: "ru"},
		{code: "en", want: "en"},
		{code: "pt-br", want: "en"},
		{code: "", want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.Language(tt.code))
			assert.Equal(t, c[tt.want], c.For(tt.code))
		})
	}
}

func TestAnalyticsEnabled(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.False(t, cfg.AnalyticsEnabled())
	cfg.Analytics.MixpanelToken = "x"
	assert.True(t, cfg.AnalyticsEnabled())
}
