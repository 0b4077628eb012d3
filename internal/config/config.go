// Package config provides configuration loading, validation, and management
// for the video note bot. It reads a YAML file and BOT_* environment
// variables through viper, fills defaults, and validates the result.
package config

import (
	"time"
)

// Config defines the application configuration parameters for all components
// of the bot: Telegram access, conversion limits, the destination directory,
// analytics sinks, the local event log, logging, and scheduled tasks.
type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Directory  DirectoryConfig  `mapstructure:"directory"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Messages   Catalog          `mapstructure:"messages"`
}

// TelegramConfig holds bot credentials and platform call timeouts.
type TelegramConfig struct {
	Token           string        `mapstructure:"token"            validate:"required"`
	AdminUserID     int64         `mapstructure:"admin_user_id"    validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  validate:"min=1s,max=10m"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout" validate:"min=1s,max=30m"`
	// ActionInterval refreshes "recording"/"uploading" while media is in
	// flight. Zero sends the action once.
	ActionInterval  time.Duration `mapstructure:"action_interval"  validate:"gte=0,max=1m"`
}

// ConversionConfig carries the platform's video note constraints.
type ConversionConfig struct {
	MaxDimension int   `mapstructure:"max_dimension" validate:"gt=0"`
	MaxDuration  int   `mapstructure:"max_duration"  validate:"gt=0"`
	MaxSize      int64 `mapstructure:"max_size"      validate:"gt=0"`
}

// DirectoryConfig points at the externally hosted destination directory.
// An empty URL means every user has an empty directory entry.
type DirectoryConfig struct {
	URL          string        `mapstructure:"url"           validate:"omitempty,url"`
	TTL          time.Duration `mapstructure:"ttl"           validate:"min=1s"`
	TitleTTL     time.Duration `mapstructure:"title_ttl"     validate:"min=1s"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"min=1s,max=5m"`
	FailureTTL   time.Duration `mapstructure:"failure_ttl"   validate:"gte=0"`
}

// AnalyticsConfig selects the analytics sinks. Analytics is disabled when
// none of them is configured.
type AnalyticsConfig struct {
	MixpanelToken string        `mapstructure:"mixpanel_token"`
	StoreEvents   bool          `mapstructure:"store_events"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"min=100ms,max=5m"`
	AMQP          AMQPConfig    `mapstructure:"amqp"`
}

// AMQPConfig configures publishing analytics events to a RabbitMQ topic exchange.
type AMQPConfig struct {
	URL        string `mapstructure:"url"         validate:"omitempty,url"`
	Exchange   string `mapstructure:"exchange"    validate:"required_with=URL"`
	RoutingKey string `mapstructure:"routing_key" validate:"required_with=URL"`
	Producer   string `mapstructure:"producer"`
}

// DatabaseConfig locates the SQLite event log.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SchedulerConfig lists scheduled maintenance tasks by name.
type SchedulerConfig struct {
	EventRetention time.Duration         `mapstructure:"event_retention" validate:"min=1h"`
	Tasks          map[string]TaskConfig `mapstructure:"tasks"           validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field included).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// AnalyticsEnabled reports whether at least one analytics sink is configured.
func (c *Config) AnalyticsEnabled() bool {
	return c.Analytics.MixpanelToken != "" || c.Analytics.AMQP.URL != "" || c.Analytics.StoreEvents
}
