package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Detector DetectorConfig `mapstructure:"detector"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	HTTPPort        int    `mapstructure:"http_port"`
	MetricsPort     int    `mapstructure:"metrics_port"`
	BindAddress     string `mapstructure:"bind_address"`
	RateLimitPerTab int    `mapstructure:"rate_limit_per_tab"` // messages per second
	RateLimitBurst  int    `mapstructure:"rate_limit_burst"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type string `mapstructure:"type"` // "bolt" or "redis"
	Path string `mapstructure:"path"`
}

// RedisConfig defines the Redis backend connection
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackingConfig defines session tracking settings
type TrackingConfig struct {
	InactivityTimeout  string `mapstructure:"inactivity_timeout"`
	SweepInterval      string `mapstructure:"sweep_interval"`
	MinSessionDuration string `mapstructure:"min_session_duration"`
	MaxSessionDuration string `mapstructure:"max_session_duration"`
	MinInteractionGap  string `mapstructure:"min_interaction_gap"`
	MaxInteractionGap  string `mapstructure:"max_interaction_gap"`
	PersistEvery       int    `mapstructure:"persist_every"`
	BackupInterval     string `mapstructure:"backup_interval"`
}

// DetectorConfig defines DOM signal classification settings
type DetectorConfig struct {
	Debounce            string `mapstructure:"debounce"`
	ResponseCooldown    string `mapstructure:"response_cooldown"`
	HealthCheckInterval string `mapstructure:"health_check_interval"`
	BufferSize          int    `mapstructure:"buffer_size"`
	FlushInterval       string `mapstructure:"flush_interval"`
	MonitorCacheSize    int    `mapstructure:"monitor_cache_size"`
	MonitorTTL          string `mapstructure:"monitor_ttl"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("CLIFFDIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file; a missing file falls back to defaults and
	// environment variables.
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http_port", 8422)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.rate_limit_per_tab", 50)
	v.SetDefault("server.rate_limit_burst", 100)
	v.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/cliffdive/cliffdive.bolt")

	// Redis defaults
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Tracking defaults
	v.SetDefault("tracking.inactivity_timeout", "2m")
	v.SetDefault("tracking.sweep_interval", "30s")
	v.SetDefault("tracking.min_session_duration", "5s")
	v.SetDefault("tracking.max_session_duration", "4h")
	v.SetDefault("tracking.min_interaction_gap", "500ms")
	v.SetDefault("tracking.max_interaction_gap", "30m")
	v.SetDefault("tracking.persist_every", 5)
	v.SetDefault("tracking.backup_interval", "1h")

	// Detector defaults
	v.SetDefault("detector.debounce", "150ms")
	v.SetDefault("detector.response_cooldown", "1s")
	v.SetDefault("detector.health_check_interval", "5s")
	v.SetDefault("detector.buffer_size", 100)
	v.SetDefault("detector.flush_interval", "60s")
	v.SetDefault("detector.monitor_cache_size", 512)
	v.SetDefault("detector.monitor_ttl", "10m")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	switch cfg.Storage.Type {
	case "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		// Ensure storage directory exists
		storageDir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(storageDir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	case "redis":
		if cfg.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.Tracking.PersistEvery <= 0 {
		return fmt.Errorf("tracking.persist_every must be positive")
	}
	if cfg.Detector.BufferSize <= 0 {
		return fmt.Errorf("detector.buffer_size must be positive")
	}
	if cfg.Detector.MonitorCacheSize <= 0 {
		return fmt.Errorf("detector.monitor_cache_size must be positive")
	}

	durations := map[string]string{
		"server.shutdown_timeout":       cfg.Server.ShutdownTimeout,
		"tracking.inactivity_timeout":   cfg.Tracking.InactivityTimeout,
		"tracking.sweep_interval":       cfg.Tracking.SweepInterval,
		"tracking.min_session_duration": cfg.Tracking.MinSessionDuration,
		"tracking.max_session_duration": cfg.Tracking.MaxSessionDuration,
		"tracking.min_interaction_gap":  cfg.Tracking.MinInteractionGap,
		"tracking.max_interaction_gap":  cfg.Tracking.MaxInteractionGap,
		"tracking.backup_interval":      cfg.Tracking.BackupInterval,
		"detector.debounce":             cfg.Detector.Debounce,
		"detector.response_cooldown":    cfg.Detector.ResponseCooldown,
		"detector.health_check_interval": cfg.Detector.HealthCheckInterval,
		"detector.flush_interval":       cfg.Detector.FlushInterval,
		"detector.monitor_ttl":          cfg.Detector.MonitorTTL,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	minSession, _ := time.ParseDuration(cfg.Tracking.MinSessionDuration)
	maxSession, _ := time.ParseDuration(cfg.Tracking.MaxSessionDuration)
	if minSession >= maxSession {
		return fmt.Errorf("tracking.min_session_duration must be below max_session_duration")
	}

	return nil
}
