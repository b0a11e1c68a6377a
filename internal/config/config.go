// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/lineup.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultMigrationsPath            = "file://migrations"
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultSweepInterval             = time.Minute
	defaultWorkers                   = 2
	defaultLookupTimeout             = 5 * time.Second
	defaultBatchWindow               = 6 * time.Hour
	defaultPastRetention             = 6 * time.Hour
	defaultOfflineDuration           = 5 * time.Minute
	defaultMinOfflineDuration        = 30 * time.Second
	defaultBreakerThreshold          = 5
	defaultBreakerReset              = 30 * time.Second
	envPrefix                        = "LINEUP"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Generator GeneratorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	EnableWAL         bool
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// GeneratorConfig holds infinite schedule generation settings
type GeneratorConfig struct {
	// SweepInterval is how often every infinite channel's buffer is checked
	SweepInterval time.Duration
	// Workers bounds how many channels are generated concurrently
	Workers int
	// LookupTimeout bounds a single catalog lookup during content resolution
	LookupTimeout time.Duration
	// BatchWindow is the span of timeline committed per transaction
	BatchWindow time.Duration
	// PastRetention keeps already-played items around for the guide
	PastRetention time.Duration
	// OfflineDuration is the longest offline flex item emitted on exhaustion
	OfflineDuration time.Duration
	// MinOfflineDuration is the shortest offline flex item emitted on exhaustion
	MinOfflineDuration time.Duration
	BreakerThreshold   int
	BreakerReset       time.Duration
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lineup")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)
	v.SetDefault("database.migrationspath", defaultMigrationsPath)

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Generator defaults
	v.SetDefault("generator.sweepinterval", defaultSweepInterval)
	v.SetDefault("generator.workers", defaultWorkers)
	v.SetDefault("generator.lookuptimeout", defaultLookupTimeout)
	v.SetDefault("generator.batchwindow", defaultBatchWindow)
	v.SetDefault("generator.pastretention", defaultPastRetention)
	v.SetDefault("generator.offlineduration", defaultOfflineDuration)
	v.SetDefault("generator.minofflineduration", defaultMinOfflineDuration)
	v.SetDefault("generator.breakerthreshold", defaultBreakerThreshold)
	v.SetDefault("generator.breakerreset", defaultBreakerReset)
}

// DefaultGeneratorConfig returns the generator defaults, for callers that build one without viper
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		SweepInterval:      defaultSweepInterval,
		Workers:            defaultWorkers,
		LookupTimeout:      defaultLookupTimeout,
		BatchWindow:        defaultBatchWindow,
		PastRetention:      defaultPastRetention,
		OfflineDuration:    defaultOfflineDuration,
		MinOfflineDuration: defaultMinOfflineDuration,
		BreakerThreshold:   defaultBreakerThreshold,
		BreakerReset:       defaultBreakerReset,
	}
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	return c.Generator.Validate()
}

// Validate checks the generator settings
func (g *GeneratorConfig) Validate() error {
	if g.SweepInterval <= 0 {
		return fmt.Errorf("invalid sweep interval: %v (must be > 0)", g.SweepInterval)
	}
	if g.Workers < 1 {
		return fmt.Errorf("invalid generator workers: %d (must be >= 1)", g.Workers)
	}
	if g.LookupTimeout <= 0 {
		return fmt.Errorf("invalid lookup timeout: %v (must be > 0)", g.LookupTimeout)
	}
	if g.BatchWindow < time.Minute {
		return fmt.Errorf("invalid batch window: %v (must be >= 1m)", g.BatchWindow)
	}
	if g.PastRetention < 0 {
		return fmt.Errorf("invalid past retention: %v (must be >= 0)", g.PastRetention)
	}
	if g.MinOfflineDuration <= 0 {
		return fmt.Errorf("invalid min offline duration: %v (must be > 0)", g.MinOfflineDuration)
	}
	if g.OfflineDuration < g.MinOfflineDuration {
		return fmt.Errorf("invalid offline duration: %v (must be >= min offline duration %v)", g.OfflineDuration, g.MinOfflineDuration)
	}
	if g.BreakerThreshold < 1 {
		return fmt.Errorf("invalid breaker threshold: %d (must be >= 1)", g.BreakerThreshold)
	}
	if g.BreakerReset <= 0 {
		return fmt.Errorf("invalid breaker reset: %v (must be > 0)", g.BreakerReset)
	}
	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
