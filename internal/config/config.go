// Package config provides configuration management for transcast using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 7979
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultHeartbeatEvery  = 5 * time.Second
	defaultWorkerTimeout   = 30 * time.Second
	defaultSchedulerPoll   = 1 * time.Second
	defaultWorkerCapacity  = 1
)

// Config holds all server-side configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds the protocol listener configuration.
type ServerConfig struct {
	HostV4          string        `mapstructure:"host_v4"`
	HostV6          string        `mapstructure:"host_v6"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	HeartbeatEvery  time.Duration `mapstructure:"heartbeat_every"`
	WorkerTimeout   time.Duration `mapstructure:"worker_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds the tracked roots, staging, and path-acceptance rules.
type StorageConfig struct {
	TrackedRoots      []string `mapstructure:"tracked_roots"`
	GlobalTempDir     string   `mapstructure:"global_temp_dir"`
	CacheDir          string   `mapstructure:"cache_dir"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	IgnoredPathRegex  []string `mapstructure:"ignored_path_regex"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// IngestionConfig holds ingestion pipeline batch sizing.
type IngestionConfig struct {
	BatchSize        int    `mapstructure:"batch_size"`
	SeasonEpisodeRgx string `mapstructure:"season_episode_regex"`
}

// SchedulerConfig holds Task Queue scheduler settings, including the
// optional cron-driven rescan.
type SchedulerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	RescanCron   string        `mapstructure:"rescan_cron"` // empty disables the rescan schedule
}

// WorkerConfig holds worker-side configuration.
type WorkerConfig struct {
	ServerURL   string `mapstructure:"server_url"`
	WorkerID    uint64 `mapstructure:"worker_id"` // 0 means not yet assigned
	Capacity    int    `mapstructure:"capacity"`
	LocalTmpDir string `mapstructure:"local_temp_dir"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	ConfigPath  string `mapstructure:"-"` // set by the loader, not from file contents

	Logging LoggingConfig `mapstructure:"logging"`
}

// Load reads server configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with TRANSCAST_ and use underscores
// for nesting. Example: TRANSCAST_SERVER_PORT=7979.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/transcast")
		v.AddConfigPath("$HOME/.transcast")
	}

	v.SetEnvPrefix("TRANSCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadWorkerConfig reads worker-side configuration the same way Load does.
func LoadWorkerConfig(configPath string) (*WorkerConfig, error) {
	v := viper.New()
	SetWorkerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("worker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/transcast")
		v.AddConfigPath("$HOME/.transcast")
	}

	v.SetEnvPrefix("TRANSCAST_WORKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading worker config file: %w", err)
		}
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling worker config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating worker config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for server configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host_v4", "127.0.0.1")
	v.SetDefault("server.host_v6", "::1")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.heartbeat_every", defaultHeartbeatEvery)
	v.SetDefault("server.worker_timeout", defaultWorkerTimeout)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "transcast.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("storage.tracked_roots", []string{})
	v.SetDefault("storage.global_temp_dir", "./data/temp")
	v.SetDefault("storage.cache_dir", "./data/cache")
	v.SetDefault("storage.allowed_extensions", []string{"mp4", "mkv", "avi", "webm"})
	v.SetDefault("storage.ignored_path_regex", []string{`\.recycle_bin`, `\.DS_Store`})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("ingestion.batch_size", 500)
	v.SetDefault("ingestion.season_episode_regex", `(?i)S(\d{1,2})E(\d{1,3})`)

	v.SetDefault("scheduler.poll_interval", defaultSchedulerPoll)
	v.SetDefault("scheduler.rescan_cron", "")
}

// SetWorkerDefaults configures default values for worker configuration options.
func SetWorkerDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "ws://127.0.0.1:7979/ws")
	v.SetDefault("worker_id", 0)
	v.SetDefault("capacity", defaultWorkerCapacity)
	v.SetDefault("local_temp_dir", "./worker-temp")
	v.SetDefault("ffmpeg_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
}

// Validate checks the server configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Ingestion.BatchSize < 1 {
		return fmt.Errorf("ingestion.batch_size must be at least 1")
	}

	return nil
}

// Validate checks the worker configuration for errors.
func (c *WorkerConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}
	return nil
}

// AddressV4 returns the IPv4 listen address in host:port format.
func (c *ServerConfig) AddressV4() string {
	return fmt.Sprintf("%s:%d", c.HostV4, c.Port)
}

// AddressV6 returns the IPv6 listen address in host:port format.
func (c *ServerConfig) AddressV6() string {
	return fmt.Sprintf("[%s]:%d", c.HostV6, c.Port)
}
