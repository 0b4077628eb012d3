package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultRequestTimeout  = time.Minute
	DefaultDownloadTimeout = 2 * time.Minute
	DefaultActionInterval  = 4 * time.Second

	// Platform video note constraints
	DefaultMaxDimension = 640
	DefaultMaxDuration  = 60
	DefaultMaxSize      = 8_389_000

	DefaultDirectoryTTL          = time.Hour
	DefaultTitleTTL              = time.Hour
	DefaultDirectoryFetchTimeout = 10 * time.Second
	DefaultDirectoryFailureTTL   = time.Minute

	DefaultAnalyticsTimeout = 10 * time.Second
	DefaultAMQPExchange     = "analytics"
	DefaultAMQPRoutingKey   = "videonote"
	DefaultAMQPProducer     = "telesco"

	DefaultDBPath = "storage.db"

	DefaultEventRetention         = 30 * 24 * time.Hour
	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
	DefaultEventPruneSchedule     = "0 30 4 * * *"
)

// legacyEnv maps config keys to the environment variable names used by
// earlier deployments of the bot.
var legacyEnv = map[string]string{
	"telegram.token":           "TELEGRAM_TOKEN",
	"analytics.mixpanel_token": "MIXPANEL_TOKEN",
	"directory.url":            "CONNECTED_CHATS_JSON_URL",
}

// setDefaults sets default values for optional configuration parameters
func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.request_timeout", DefaultRequestTimeout)
	v.SetDefault("telegram.download_timeout", DefaultDownloadTimeout)
	v.SetDefault("telegram.action_interval", DefaultActionInterval)

	v.SetDefault("conversion.max_dimension", DefaultMaxDimension)
	v.SetDefault("conversion.max_duration", DefaultMaxDuration)
	v.SetDefault("conversion.max_size", DefaultMaxSize)

	v.SetDefault("directory.url", "")
	v.SetDefault("directory.ttl", DefaultDirectoryTTL)
	v.SetDefault("directory.title_ttl", DefaultTitleTTL)
	v.SetDefault("directory.fetch_timeout", DefaultDirectoryFetchTimeout)
	v.SetDefault("directory.failure_ttl", DefaultDirectoryFailureTTL)

	v.SetDefault("analytics.mixpanel_token", "")
	v.SetDefault("analytics.store_events", false)
	v.SetDefault("analytics.timeout", DefaultAnalyticsTimeout)
	v.SetDefault("analytics.amqp.url", "")
	v.SetDefault("analytics.amqp.exchange", DefaultAMQPExchange)
	v.SetDefault("analytics.amqp.routing_key", DefaultAMQPRoutingKey)
	v.SetDefault("analytics.amqp.producer", DefaultAMQPProducer)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("scheduler.event_retention", DefaultEventRetention)
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultSQLMaintenanceSchedule)
	v.SetDefault("scheduler.tasks.event_log_prune.enabled", true)
	v.SetDefault("scheduler.tasks.event_log_prune.schedule", DefaultEventPruneSchedule)
}
