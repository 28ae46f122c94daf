package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Snapshot SnapshotConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	Timezone        string // IANA zone used for day boundaries
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SnapshotConfig holds the daily status-snapshot job configuration
type SnapshotConfig struct {
	Enabled  bool
	CronSpec string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.timezone", "Asia/Seoul")

	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	// Evaluate and persist each active cycle's status at 21:00 daily.
	v.SetDefault("snapshot.enabled", true)
	v.SetDefault("snapshot.cronspec", "0 21 * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	v.BindEnv("server.timezone", "TIMEZONE")

	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("snapshot.enabled", "SNAPSHOT_ENABLED")
	v.BindEnv("snapshot.cronspec", "SNAPSHOT_CRON")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Snapshot.Enabled && c.Snapshot.CronSpec == "" {
		return fmt.Errorf("snapshot.cronspec is required when the snapshot job is enabled")
	}

	return nil
}
