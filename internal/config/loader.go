// Package config provides configuration management for the prop-edge scanner.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "PROP_EDGE"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields
// A missing file is not an error; defaults and environment variables are used instead
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "prop-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("scanner.fixed_implied_prob", 0.545)
	v.SetDefault("scanner.edge_threshold", 0.03)
	v.SetDefault("scanner.assumed_vig", 0.05)
	v.SetDefault("scanner.sport", "nba")
	v.SetDefault("scanner.target_book", "sleeper")
	v.SetDefault("scanner.smart_cache_ttl_seconds", 45)
	v.SetDefault("scanner.full_cache_ttl_seconds", 120)
	v.SetDefault("scanner.max_games", 8)
	v.SetDefault("scanner.trending_limit", 25)
	v.SetDefault("scanner.scan_timeout_seconds", 60)

	v.SetDefault("consensus.min_books", 1)
	v.SetDefault("consensus.line_window", 1.0)
	v.SetDefault("consensus.main_line_only", true)
	v.SetDefault("consensus.min_trend_count", 0)

	v.SetDefault("slips.book", "sleeper")
	v.SetDefault("slips.mode", "power")
	v.SetDefault("slips.sizes", []int{3, 4, 5, 6})
	v.SetDefault("slips.top_n", 5)
	v.SetDefault("slips.min_edge", 0.0)
	v.SetDefault("slips.workers", 0)

	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com")
	v.SetDefault("odds_api.regions", "us,us2")
	v.SetDefault("odds_api.timeout_seconds", 15)
	v.SetDefault("odds_api.requests_per_second", 2.0)
	v.SetDefault("odds_api.burst", 4)
	v.SetDefault("odds_api.max_retries", 2)
	v.SetDefault("odds_api.circuit_breaker_threshold", 5)

	v.SetDefault("sleeper.base_url", "https://api.sleeper.app/v1")
	v.SetDefault("sleeper.lookback_hours", 24)
	v.SetDefault("sleeper.timeout_seconds", 10)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 120)

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.scope", "smart")
}
