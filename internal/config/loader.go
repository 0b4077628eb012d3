package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrConfiguration wraps every failure returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. BOT_* environment variables, plus the legacy TELEGRAM_TOKEN,
// MIXPANEL_TOKEN and CONNECTED_CHATS_JSON_URL names
func LoadConfig(path string) (*Config, error) {
	startTime := time.Now()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := "BOT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("%w: failed to bind env for %s: %v", ErrConfiguration, key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	cfg.Messages = mergeCatalog(DefaultCatalog(), cfg.Messages)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Debug("Configuration loaded",
		"path", path,
		"directory_configured", cfg.Directory.URL != "",
		"analytics_enabled", cfg.AnalyticsEnabled(),
		"languages", len(cfg.Messages),
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}
