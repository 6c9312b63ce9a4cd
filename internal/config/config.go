// Package config loads the research loop's tunables from a YAML file via
// viper, and (in manager.go) watches that file plus the URL-filter Rego
// policy for hot changes via fsnotify, matching the teacher's
// config-manager idiom.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoopConfig carries the bounds and pacing constants spec.md §4.7/§5 name,
// split out so the workflow can pass the eval-mode or interactive-mode
// variant without the caller needing to know about YAML at all.
type LoopConfig struct {
	MaxDepth          int     `mapstructure:"max_depth"`
	TimeLimitMs       int64   `mapstructure:"time_limit_ms"`
	MaxFailedAttempts int     `mapstructure:"max_failed_attempts"`
	SearchRetries     int     `mapstructure:"search_retries"`
	ExtractRetries    int     `mapstructure:"extract_retries"`
	InterSearchMs     int     `mapstructure:"inter_search_ms"`
	InterURLMs        int     `mapstructure:"inter_url_ms"`
	InterHopMs        int     `mapstructure:"inter_hop_ms"`
}

// ObservabilityConfig configures the ambient logging/metrics/tracing stack.
type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Tracing struct {
		Enabled     bool    `mapstructure:"enabled"`
		SampleRatio float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"tracing"`
}

// AuditConfig configures the completed-request audit log.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// Config is the top-level schema for research.yaml.
type Config struct {
	Eval        LoopConfig          `mapstructure:"eval"`
	Interactive LoopConfig          `mapstructure:"interactive"`
	URLBlocklist []string           `mapstructure:"url_blocklist"`
	Stopwords    []string           `mapstructure:"stopwords"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Audit         AuditConfig         `mapstructure:"audit"`
}

// defaultConfigPath is used when CONFIG_PATH is unset.
const defaultConfigPath = "./config/research.yaml"

// Path returns CONFIG_PATH or the default research.yaml location.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}

// Default returns the built-in fallback configuration, used when no config
// file is present (e.g. in unit tests) and as the base viper merges onto.
func Default() *Config {
	return &Config{
		Eval: LoopConfig{
			MaxDepth:          6,
			TimeLimitMs:       int64(3.5 * 60 * 1000),
			MaxFailedAttempts: 3,
			SearchRetries:     3,
			ExtractRetries:    2,
			InterSearchMs:     1000,
			InterURLMs:        2000,
			InterHopMs:        2000,
		},
		Interactive: LoopConfig{
			MaxDepth:          7,
			TimeLimitMs:       int64(3.5 * 60 * 1000),
			MaxFailedAttempts: 3,
			SearchRetries:     3,
			ExtractRetries:    2,
			InterSearchMs:     1000,
			InterURLMs:        2000,
			InterHopMs:        2000,
		},
		URLBlocklist: []string{
			"reddit.com", "brainly.com", "youtube.com", "youtu.be",
			"facebook.com", "twitter.com", "x.com", "tiktok.com", "instagram.com",
		},
	}
}

// Load reads Path() (or falls back to Default() if the file is absent),
// merging viper-parsed values onto the defaults.
func Load() (*Config, error) {
	cfg := Default()

	path := Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return cfg, nil
}

// MetricsPort returns the observability port, honoring a METRICS_PORT env
// override before falling back to the config file value, then defaultPort.
func MetricsPort(defaultPort int) int {
	if p := os.Getenv("METRICS_PORT"); p != "" {
		var v int
		if _, err := fmt.Sscanf(p, "%d", &v); err == nil && v > 0 {
			return v
		}
	}
	if cfg, err := Load(); err == nil && cfg.Observability.Metrics.Port > 0 {
		return cfg.Observability.Metrics.Port
	}
	return defaultPort
}
