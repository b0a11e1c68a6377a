package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		Database: DatabaseConfig{
			Path:              "./data/lineup.db",
			ConnectionTimeout: defaultDatabaseConnectionTimeout,
			EnableWAL:         true,
			MigrationsPath:    defaultMigrationsPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Generator: DefaultGeneratorConfig(),
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != defaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Server.Host != defaultServerHost {
		t.Errorf("Server.Host = %s, want %s", cfg.Server.Host, defaultServerHost)
	}

	if cfg.Database.Path != defaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, defaultDatabasePath)
	}
	if cfg.Database.EnableWAL != defaultDatabaseEnableWAL {
		t.Errorf("Database.EnableWAL = %v, want %v", cfg.Database.EnableWAL, defaultDatabaseEnableWAL)
	}
	if cfg.Database.MigrationsPath != defaultMigrationsPath {
		t.Errorf("Database.MigrationsPath = %s, want %s", cfg.Database.MigrationsPath, defaultMigrationsPath)
	}

	if cfg.Logging.Level != defaultLogLevel {
		t.Errorf("Logging.Level = %s, want %s", cfg.Logging.Level, defaultLogLevel)
	}

	if cfg.Generator.SweepInterval != defaultSweepInterval {
		t.Errorf("Generator.SweepInterval = %v, want %v", cfg.Generator.SweepInterval, defaultSweepInterval)
	}
	if cfg.Generator.Workers != defaultWorkers {
		t.Errorf("Generator.Workers = %d, want %d", cfg.Generator.Workers, defaultWorkers)
	}
	if cfg.Generator.LookupTimeout != defaultLookupTimeout {
		t.Errorf("Generator.LookupTimeout = %v, want %v", cfg.Generator.LookupTimeout, defaultLookupTimeout)
	}
	if cfg.Generator.BatchWindow != defaultBatchWindow {
		t.Errorf("Generator.BatchWindow = %v, want %v", cfg.Generator.BatchWindow, defaultBatchWindow)
	}
	if cfg.Generator.OfflineDuration != defaultOfflineDuration {
		t.Errorf("Generator.OfflineDuration = %v, want %v", cfg.Generator.OfflineDuration, defaultOfflineDuration)
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("LINEUP_SERVER_PORT", "9191")
	t.Setenv("LINEUP_GENERATOR_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Generator.Workers != 4 {
		t.Errorf("Generator.Workers = %d, want 4", cfg.Generator.Workers)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid server port (too low)",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid server port (too high)",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Generator.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "batch window too small",
			mutate:  func(c *Config) { c.Generator.BatchWindow = time.Second },
			wantErr: true,
		},
		{
			name: "offline duration below minimum",
			mutate: func(c *Config) {
				c.Generator.OfflineDuration = 10 * time.Second
				c.Generator.MinOfflineDuration = 30 * time.Second
			},
			wantErr: true,
		},
		{
			name:    "past retention can be zero",
			mutate:  func(c *Config) { c.Generator.PastRetention = 0 },
			wantErr: false,
		},
		{
			name:    "zero breaker threshold",
			mutate:  func(c *Config) { c.Generator.BreakerThreshold = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
