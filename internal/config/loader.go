package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel         = "info"
	DefaultDBPath           = "chatpulse.db"
	DefaultDedupCacheSize   = 1000
	DefaultReportTimezone   = "Europe/Moscow"
	DefaultReportWindowDays = 45
)

// Load loads and validates configuration from:
// 1. Default values
// 2. the YAML file at configPath (optional)
// 3. CHATPULSE_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CHATPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; environment variables and defaults
	// are enough to run.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Report.Timezone); err != nil {
		return nil, fmt.Errorf("invalid report timezone %q: %w", cfg.Report.Timezone, err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	// Registering the required keys with empty defaults lets viper pick
	// them up from environment variables when no config file sets them.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("ingest.dedup_cache_size", DefaultDedupCacheSize)

	v.SetDefault("report.timezone", DefaultReportTimezone)
	v.SetDefault("report.window_days", DefaultReportWindowDays)

	v.SetDefault("scheduler.tasks.daily_report.enabled", true)
	v.SetDefault("scheduler.tasks.daily_report.schedule", "0 0 18 * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")
}
