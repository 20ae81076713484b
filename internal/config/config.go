// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures all crawl configuration knobs loaded via Viper.
// It is built once at startup and treated as immutable afterwards.
type Config struct {
	Input    InputConfig      `mapstructure:"input"`
	Output   OutputConfig     `mapstructure:"output"`
	HTTP     HTTPConfig       `mapstructure:"http"`
	Retry    RetryConfig      `mapstructure:"retry"`
	Protocol ProtocolConfig   `mapstructure:"protocol"`
	Robots   RobotsConfig     `mapstructure:"robots"`
	Rotation UARotationConfig `mapstructure:"user_agent_rotation"`
	Metrics  MetricsConfig    `mapstructure:"metrics"`
	Logging  LoggingConfig    `mapstructure:"logging"`
}

// InputConfig locates the domain-list file.
type InputConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig locates the NDJSON result file.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig governs the fetch client.
type HTTPConfig struct {
	TimeoutSeconds  float64 `mapstructure:"timeout_seconds"`
	Concurrency     int     `mapstructure:"concurrency"`
	UserAgent       string  `mapstructure:"user_agent"`
	FollowRedirects bool    `mapstructure:"follow_redirects"`
	MaxRedirects    int     `mapstructure:"max_redirects"`
	MaxPageBytes    int64   `mapstructure:"max_page_bytes"`
}

// RetryConfig controls the per-protocol retry loop.
type RetryConfig struct {
	MaxAttempts        int     `mapstructure:"max_attempts"`
	BackoffBaseSeconds float64 `mapstructure:"backoff_base_seconds"`
	JitterMaxSeconds   float64 `mapstructure:"jitter_max_seconds"`
}

// ProtocolConfig orders the protocol fallback chain.
type ProtocolConfig struct {
	TryHTTPSFirst  bool `mapstructure:"try_https_first"`
	FallbackToHTTP bool `mapstructure:"fallback_to_http"`
}

// RobotsConfig toggles robots.txt compliance.
type RobotsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"`
}

// UARotationConfig toggles user-agent rotation and transparency.
type UARotationConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Identify   bool   `mapstructure:"identify"`
	Identifier string `mapstructure:"identifier"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from the already-initialized Viper instance.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input.path must be set")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.Concurrency <= 0 {
		return fmt.Errorf("http.concurrency must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent must be set")
	}
	if c.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.max_redirects must be >= 0")
	}
	if c.HTTP.MaxPageBytes <= 0 {
		return fmt.Errorf("http.max_page_bytes must be > 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	if c.Retry.BackoffBaseSeconds < 0 {
		return fmt.Errorf("retry.backoff_base_seconds must be >= 0")
	}
	if c.Retry.JitterMaxSeconds < 0 {
		return fmt.Errorf("retry.jitter_max_seconds must be >= 0")
	}
	if !c.Protocol.TryHTTPSFirst && !c.Protocol.FallbackToHTTP {
		return fmt.Errorf("protocol config must enable at least one of https/http")
	}
	if c.Robots.Enabled && c.Robots.CacheTTLSeconds <= 0 {
		return fmt.Errorf("robots.cache_ttl_seconds must be > 0 when robots is enabled")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds * float64(time.Second))
}

// RobotsTTL converts the robots cache TTL into a duration.
func (c Config) RobotsTTL() time.Duration {
	return time.Duration(c.Robots.CacheTTLSeconds) * time.Second
}

// BackoffBase converts the retry backoff base into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Retry.BackoffBaseSeconds * float64(time.Second))
}

// JitterMax converts the retry jitter ceiling into a duration.
func (c Config) JitterMax() time.Duration {
	return time.Duration(c.Retry.JitterMaxSeconds * float64(time.Second))
}

// Protocols returns the ordered protocol list for the fetch state machine.
// An empty outcome is prevented by Validate.
func (c Config) Protocols() []string {
	var out []string
	if c.Protocol.TryHTTPSFirst {
		out = append(out, "https")
	}
	if c.Protocol.FallbackToHTTP {
		out = append(out, "http")
	}
	if len(out) == 0 {
		out = []string{"https"}
	}
	return out
}
