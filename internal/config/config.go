// Package config provides configuration loading, validation, and defaults
// for the ChatPulse application. Values come from config.yaml and from
// CHATPULSE_* environment variables layered over built-in defaults.
package config

// Config defines the application configuration parameters for all
// components: logging, Telegram transport, database, ingestion, reporting,
// and scheduled tasks.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Report    ReportConfig    `mapstructure:"report"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the administrator user ID.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	AdminID int64  `mapstructure:"admin_id" validate:"required,gt=0"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// IngestConfig controls the update gateway.
type IngestConfig struct {
	// DedupCacheSize bounds the seen-event-id cache. The cache is
	// best-effort; the messages natural-key constraint is the real
	// duplicate backstop.
	DedupCacheSize int `mapstructure:"dedup_cache_size" validate:"required,min=16,max=1000000"`
}

// ReportConfig controls the aggregation window and the timezone used for
// hourly histograms. Timezone must be an IANA zone name.
type ReportConfig struct {
	Timezone   string `mapstructure:"timezone"    validate:"required"`
	WindowDays int    `mapstructure:"window_days" validate:"required,min=1,max=365"`
}

// SchedulerConfig lists the scheduled tasks, keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task and sets its cron schedule
// (six-field cron expressions with seconds are accepted).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
