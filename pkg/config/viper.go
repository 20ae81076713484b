// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phidi/identity-crawler/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. Designed to be called once at startup.
func InitConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")                       // Current working directory
	viper.AddConfigPath("/etc/identity-crawler/")  // System-wide configuration
	viper.AddConfigPath("$HOME/.identity-crawler") // User-specific configuration

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("CRAWLER") // e.g., CRAWLER_HTTP_TIMEOUT_SECONDS=30
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "data/inputs/sample-websites.csv")
	v.SetDefault("output.path", "data/outputs/results.ndjson")

	v.SetDefault("http.timeout_seconds", 12.0)
	v.SetDefault("http.concurrency", 50)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; SpaceCrawler/1.0)")
	v.SetDefault("http.follow_redirects", true)
	v.SetDefault("http.max_redirects", 5)
	v.SetDefault("http.max_page_bytes", 5*1024*1024)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff_base_seconds", 0.5)
	v.SetDefault("retry.jitter_max_seconds", 0.5)

	v.SetDefault("protocol.try_https_first", true)
	v.SetDefault("protocol.fallback_to_http", true)

	v.SetDefault("robots.enabled", true)
	v.SetDefault("robots.cache_ttl_seconds", 86400) // 24 hours

	v.SetDefault("user_agent_rotation.enabled", true)
	v.SetDefault("user_agent_rotation.identify", true)
	v.SetDefault("user_agent_rotation.identifier", "SpaceCrawler/1.0")

	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("logging.development", true)
}
