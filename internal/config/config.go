package config

import (
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string        `mapstructure:"driver"`
	Path      string        `mapstructure:"path"`
	URL       string        `mapstructure:"url"`
	AuthToken string        `mapstructure:"auth_token"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RedisConfig contains the optional remote key-value store configuration.
// The distributed cache is only wired up when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// CacheConfig contains cache sizing and TTL configuration.
type CacheConfig struct {
	// MemoryMaxSize is the entry count that triggers the in-process cache's
	// expiry sweep.
	MemoryMaxSize int `mapstructure:"memory_max_size"`

	// RuleTTL is how long rule and count lookups stay cached in front of the
	// store. Stale reads within this window are an accepted trade-off.
	RuleTTL time.Duration `mapstructure:"rule_ttl"`
}

// RateLimiterConfig contains quota engine configuration.
type RateLimiterConfig struct {
	// Whitelist lists request paths that bypass quota checks and usage
	// recording entirely.
	Whitelist []string `mapstructure:"whitelist"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format selects the encoder: "json" or "console".
	Format string `mapstructure:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
