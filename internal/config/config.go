// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package config

import (
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

// Config is the top-level opsdash configuration.
type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Cache      CacheConfig                `mapstructure:"cache"`
	Runner     RunnerConfig               `mapstructure:"runner"`
	Collectors map[string]CollectorConfig `mapstructure:"collectors"`
}

// ServerConfig controls the diagnostic HTTP server.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// CacheConfig controls the TTL cache and circuit breaker.
type CacheConfig struct {
	DefaultTTLSeconds float64       `mapstructure:"default_ttl"`
	SlowThresholdMS   int           `mapstructure:"slow_threshold_ms"`
	Circuit           CircuitConfig `mapstructure:"circuit"`
}

// CircuitConfig sets the breaker thresholds.
type CircuitConfig struct {
	MaxErrors    int     `mapstructure:"max_errors"`
	ResetSeconds float64 `mapstructure:"reset_seconds"`
}

// RunnerConfig controls external command execution.
type RunnerConfig struct {
	TimeoutSeconds float64 `mapstructure:"timeout"`
}

// CollectorConfig defines one named data source. Exactly one of Command or
// URL must be set.
type CollectorConfig struct {
	Command         []string `mapstructure:"command"`
	Dir             string   `mapstructure:"dir"`
	URL             string   `mapstructure:"url"`
	JSON            bool     `mapstructure:"json"`
	TTLSeconds      float64  `mapstructure:"ttl"`
	IntervalSeconds float64  `mapstructure:"interval"`
	Disabled        bool     `mapstructure:"disabled"`
	// NoStaleFallback disables serving stale data when a fresh fetch fails.
	NoStaleFallback bool `mapstructure:"no_stale_fallback"`
}

// DefaultTTL returns the cache TTL as a duration.
func (c CacheConfig) DefaultTTL() time.Duration {
	return secondsToDuration(c.DefaultTTLSeconds)
}

// SlowThreshold returns the slow-fetch threshold as a duration.
func (c CacheConfig) SlowThreshold() time.Duration {
	return time.Duration(c.SlowThresholdMS) * time.Millisecond
}

// Reset returns the breaker auto-reset window as a duration.
func (c CircuitConfig) Reset() time.Duration {
	return secondsToDuration(c.ResetSeconds)
}

// Timeout returns the command deadline as a duration.
func (c RunnerConfig) Timeout() time.Duration {
	return secondsToDuration(c.TimeoutSeconds)
}

// TTL returns the collector's cache TTL, or fallback when unset.
func (c CollectorConfig) TTL(fallback time.Duration) time.Duration {
	if c.TTLSeconds == 0 {
		return fallback
	}
	return secondsToDuration(c.TTLSeconds)
}

// Interval returns the refresh interval, defaulting to the TTL so each
// refresh lands just as the previous value expires.
func (c CollectorConfig) Interval(fallback time.Duration) time.Duration {
	if c.IntervalSeconds <= 0 {
		return c.TTL(fallback)
	}
	return secondsToDuration(c.IntervalSeconds)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// SetDefaults registers default values on the given Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:18990")
	v.SetDefault("cache.default_ttl", 5.0)
	v.SetDefault("cache.slow_threshold_ms", 2000)
	v.SetDefault("cache.circuit.max_errors", 3)
	v.SetDefault("cache.circuit.reset_seconds", 60.0)
	v.SetDefault("runner.timeout", 15.0)
}

// SetupEnv binds OPSDASH_-prefixed environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("OPSDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix OPSDASH_).
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, opserr.Errorf(opserr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, opserr.Errorf(opserr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return opserr.Errorf(opserr.CodeConfigValidateInvalidValue,
			"server.listen %q is not host:port: %w", c.Server.Listen, err)
	}
	if c.Cache.Circuit.MaxErrors < 1 {
		return opserr.Errorf(opserr.CodeConfigValidateInvalidValue,
			"cache.circuit.max_errors must be at least 1 (got %d)", c.Cache.Circuit.MaxErrors)
	}
	if c.Cache.Circuit.ResetSeconds <= 0 {
		return opserr.Errorf(opserr.CodeConfigValidateInvalidValue,
			"cache.circuit.reset_seconds must be positive (got %g)", c.Cache.Circuit.ResetSeconds)
	}

	for name, col := range c.Collectors {
		hasCommand := len(col.Command) > 0
		hasURL := col.URL != ""
		if hasCommand == hasURL {
			return opserr.Errorf(opserr.CodeConfigValidateInvalidValue,
				"collector %q must set exactly one of command or url", name)
		}
	}
	return nil
}
