// Copyright 2025 James Ross
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Redis carries connection settings shared by the Redis-backed transport,
// state store, and distributed lock.
type Redis struct {
	Addr               string        `mapstructure:"addr"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	DB                 int           `mapstructure:"db"`
	PoolSizeMultiplier int           `mapstructure:"pool_size_multiplier"`
	MinIdleConns       int           `mapstructure:"min_idle_conns"`
	DialTimeout        time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

// Transport selects the backend (memory|redis) and the maximum payload
// size. BatchSize, MaxInflight and AckTimeout are checked by Validate but
// are not passed to either transport; a subscription with nil opts uses
// transport.DefaultSubscribeOpts.
type Transport struct {
	Backend        string        `mapstructure:"backend"`
	MaxPayloadSize int           `mapstructure:"max_payload_size"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxInflight    int           `mapstructure:"max_inflight"`
	AckTimeout     time.Duration `mapstructure:"ack_timeout"`
}

// Sweeper tunes the watcher harness's scan cadence and singleton lock.
type Sweeper struct {
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	ClaimTimeout time.Duration `mapstructure:"claim_timeout"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	LockKey      string        `mapstructure:"lock_key"`
}

type TracingConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	Endpoint         string  `mapstructure:"endpoint"`
	Environment      string  `mapstructure:"environment"`
	SamplingStrategy string  `mapstructure:"sampling_strategy"`
	SamplingRate     float64 `mapstructure:"sampling_rate"`
}

// Tracing is a backwards-compatible alias.
type Tracing = TracingConfig

type ObservabilityConfig struct {
	MetricsPort int           `mapstructure:"metrics_port"`
	LogLevel    string        `mapstructure:"log_level"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

// Observability is a backwards-compatible alias.
type Observability = ObservabilityConfig

type Config struct {
	Redis         Redis         `mapstructure:"redis"`
	Transport     Transport     `mapstructure:"transport"`
	Sweeper       Sweeper       `mapstructure:"sweeper"`
	Observability Observability `mapstructure:"observability"`
}

func defaultConfig() *Config {
	return &Config{
		Redis: Redis{
			Addr:               "localhost:6379",
			PoolSizeMultiplier: 10,
			MinIdleConns:       5,
			DialTimeout:        5 * time.Second,
			ReadTimeout:        3 * time.Second,
			WriteTimeout:       3 * time.Second,
			MaxRetries:         3,
		},
		Transport: Transport{
			Backend:        "memory",
			MaxPayloadSize: 1 << 20,
			BatchSize:      10,
			MaxInflight:    100,
			AckTimeout:     30 * time.Second,
		},
		Sweeper: Sweeper{
			ScanInterval: 5 * time.Second,
			ClaimTimeout: 5 * time.Minute,
			LockTTL:      30 * time.Second,
			LockKey:      "gbe.lock.sweeper",
		},
		Observability: Observability{
			MetricsPort: 9090,
			LogLevel:    "info",
			Tracing:     Tracing{Enabled: false, SamplingStrategy: "probabilistic", SamplingRate: 0.1},
		},
	}
}

// Load reads configuration from a YAML file (if it exists) layered under
// explicit defaults and GBE_-prefixed environment overrides, then
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("gbe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.pool_size_multiplier", def.Redis.PoolSizeMultiplier)
	v.SetDefault("redis.min_idle_conns", def.Redis.MinIdleConns)
	v.SetDefault("redis.dial_timeout", def.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", def.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", def.Redis.WriteTimeout)
	v.SetDefault("redis.max_retries", def.Redis.MaxRetries)

	v.SetDefault("transport.backend", def.Transport.Backend)
	v.SetDefault("transport.max_payload_size", def.Transport.MaxPayloadSize)
	v.SetDefault("transport.batch_size", def.Transport.BatchSize)
	v.SetDefault("transport.max_inflight", def.Transport.MaxInflight)
	v.SetDefault("transport.ack_timeout", def.Transport.AckTimeout)

	v.SetDefault("sweeper.scan_interval", def.Sweeper.ScanInterval)
	v.SetDefault("sweeper.claim_timeout", def.Sweeper.ClaimTimeout)
	v.SetDefault("sweeper.lock_ttl", def.Sweeper.LockTTL)
	v.SetDefault("sweeper.lock_key", def.Sweeper.LockKey)

	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)
	v.SetDefault("observability.tracing.enabled", def.Observability.Tracing.Enabled)
	v.SetDefault("observability.tracing.endpoint", def.Observability.Tracing.Endpoint)
	v.SetDefault("observability.tracing.environment", def.Observability.Tracing.Environment)
	v.SetDefault("observability.tracing.sampling_strategy", def.Observability.Tracing.SamplingStrategy)
	v.SetDefault("observability.tracing.sampling_rate", def.Observability.Tracing.SamplingRate)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints and returns an error on invalid settings.
func Validate(cfg *Config) error {
	switch cfg.Transport.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("transport.backend must be 'memory' or 'redis', got %q", cfg.Transport.Backend)
	}
	if cfg.Transport.MaxPayloadSize <= 0 {
		return fmt.Errorf("transport.max_payload_size must be > 0")
	}
	if cfg.Transport.BatchSize <= 0 {
		return fmt.Errorf("transport.batch_size must be > 0")
	}
	if cfg.Transport.MaxInflight <= 0 {
		return fmt.Errorf("transport.max_inflight must be > 0")
	}
	if cfg.Transport.AckTimeout <= 0 {
		return fmt.Errorf("transport.ack_timeout must be > 0")
	}
	if cfg.Sweeper.ScanInterval <= 0 {
		return fmt.Errorf("sweeper.scan_interval must be > 0")
	}
	if cfg.Sweeper.LockTTL <= cfg.Sweeper.ScanInterval {
		return fmt.Errorf("sweeper.lock_ttl must be greater than sweeper.scan_interval")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	return nil
}
