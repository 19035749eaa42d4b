// Package config provides configuration management for the ingestion service.
//
// Configuration is loaded from:
// 1. .env file (optional, never overrides the real environment)
// 2. config.yaml file (optional)
// 3. Environment variables (standard names like SERVER_PORT, DRAIN_INTERVAL)
// 4. Default values
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Drain   DrainConfig   `mapstructure:"drain"`
	Journal JournalConfig `mapstructure:"journal"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORS. A "*" entry in AllowedOrigins is ignored unless
	// UnsafeAllowAllOrigins is set, which also disables credentials.
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	DrainPoolSize   int `mapstructure:"drain_pool_size"`
}

// IngestConfig contains submission settings.
type IngestConfig struct {
	BatchSize int   `mapstructure:"batch_size"`
	MinID     int64 `mapstructure:"min_id"`
	MaxID     int64 `mapstructure:"max_id"`
}

// DrainConfig contains drain loop settings.
type DrainConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	BatchesPerTick int           `mapstructure:"batches_per_tick"`
	RunOnStart     bool          `mapstructure:"run_on_start"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	PerIDDelay     time.Duration `mapstructure:"per_id_delay"`
}

// JournalConfig contains SQLite status journal settings.
type JournalConfig struct {
	// Path of the SQLite file. Empty disables the journal.
	Path string `mapstructure:"path"`
}

// Enabled reports whether the journal should be opened.
func (c JournalConfig) Enabled() bool {
	return c.Path != ""
}

// Load reads configuration from the default locations and environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty file searches
// ., ./config and /etc/ingestq for config.yaml.
// Standard environment variables without prefix (SERVER_PORT, DRAIN_INTERVAL, etc.).
func LoadFile(file string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load(".env")

	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ingestq")
	}

	// No prefix: uses standard names like SERVER_PORT, LOG_LEVEL
	// Maps nested config: drain.batches_per_tick → DRAIN_BATCHES_PER_TICK
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0:
		return fmt.Errorf("server.port must be positive")
	case c.Ingest.BatchSize <= 0:
		return fmt.Errorf("ingest.batch_size must be positive")
	case c.Ingest.MinID > c.Ingest.MaxID:
		return fmt.Errorf("ingest.min_id must not exceed ingest.max_id")
	case c.Drain.Interval <= 0:
		return fmt.Errorf("drain.interval must be positive")
	case c.Drain.BatchesPerTick <= 0:
		return fmt.Errorf("drain.batches_per_tick must be positive")
	case c.Drain.MaxAttempts <= 0:
		return fmt.Errorf("drain.max_attempts must be positive")
	case c.Drain.ProcessTimeout <= 0:
		return fmt.Errorf("drain.process_timeout must be positive")
	case c.Drain.RetryDelay < 0 || c.Drain.PerIDDelay < 0:
		return fmt.Errorf("drain delays must not be negative")
	case c.Worker.GeneralPoolSize <= 0 || c.Worker.DrainPoolSize <= 0:
		return fmt.Errorf("worker pool sizes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Worker Pool
	v.SetDefault("worker.general_pool_size", 64)
	v.SetDefault("worker.drain_pool_size", 1)

	// Ingest
	v.SetDefault("ingest.batch_size", 3)
	v.SetDefault("ingest.min_id", 1)
	v.SetDefault("ingest.max_id", 1000000007)

	// Drain loop
	v.SetDefault("drain.interval", "5s")
	v.SetDefault("drain.batches_per_tick", 1)
	v.SetDefault("drain.run_on_start", false)
	v.SetDefault("drain.process_timeout", "30s")
	v.SetDefault("drain.max_attempts", 3)
	v.SetDefault("drain.retry_delay", "100ms")
	v.SetDefault("drain.per_id_delay", "1s")

	// Journal (disabled)
	v.SetDefault("journal.path", "")
}
