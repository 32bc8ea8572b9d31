// Package config provides configuration management for the prop-edge scanner.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig                      `mapstructure:"app" validate:"required"`
	Scanner   ScannerConfig                  `mapstructure:"scanner" validate:"required"`
	Consensus ConsensusConfig                `mapstructure:"consensus" validate:"required"`
	Slips     SlipsConfig                    `mapstructure:"slips" validate:"required"`
	Payouts   map[string][]PayoutModeConfig  `mapstructure:"payouts" validate:"dive,dive"`
	Markets   map[string]map[string][]string `mapstructure:"markets"`
	OddsAPI   OddsAPIConfig                  `mapstructure:"odds_api" validate:"required"`
	Sleeper   SleeperConfig                  `mapstructure:"sleeper" validate:"required"`
	Database  DatabaseConfig                 `mapstructure:"database"`
	Metrics   MetricsConfig                  `mapstructure:"metrics" validate:"required"`
	Server    ServerConfig                   `mapstructure:"server" validate:"required"`
	Schedule  ScheduleConfig                 `mapstructure:"schedule"`
	Secrets   SecretsConfig                  `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ScannerConfig holds the edge evaluation thresholds and scan limits
type ScannerConfig struct {
	FixedImpliedProb     float64 `mapstructure:"fixed_implied_prob" validate:"gt=0,lt=1"`
	EdgeThreshold        float64 `mapstructure:"edge_threshold" validate:"gte=0,lt=1"`
	AssumedVig           float64 `mapstructure:"assumed_vig" validate:"gte=0,lt=1"`
	Sport                string  `mapstructure:"sport" validate:"required,sport"`
	TargetBook           string  `mapstructure:"target_book"`
	SmartCacheTTLSeconds int     `mapstructure:"smart_cache_ttl_seconds" validate:"gt=0"`
	FullCacheTTLSeconds  int     `mapstructure:"full_cache_ttl_seconds" validate:"gt=0"`
	MaxGames             int     `mapstructure:"max_games" validate:"gt=0,lte=30"`
	TrendingLimit        int     `mapstructure:"trending_limit" validate:"gt=0,lte=200"`
	ScanTimeoutSeconds   int     `mapstructure:"scan_timeout_seconds" validate:"gt=0"`
}

// ConsensusConfig holds book weights and the consensus gates
type ConsensusConfig struct {
	Weights       map[string]float64 `mapstructure:"weights"`
	Aliases       map[string]string  `mapstructure:"aliases"`
	MinBooks      int                `mapstructure:"min_books" validate:"gte=0"`
	LineWindow    float64            `mapstructure:"line_window"`
	MainLineOnly  bool               `mapstructure:"main_line_only"`
	MinTrendCount int                `mapstructure:"min_trend_count" validate:"gte=0"`
}

// SlipsConfig holds slip optimizer defaults
type SlipsConfig struct {
	Book    string  `mapstructure:"book" validate:"required"`
	Mode    string  `mapstructure:"mode" validate:"required,slipmode"`
	Sizes   []int   `mapstructure:"sizes" validate:"required,min=1,dive,min=2,max=6"`
	TopN    int     `mapstructure:"top_n" validate:"gt=0,lte=50"`
	MinEdge float64 `mapstructure:"min_edge"`
	Workers int     `mapstructure:"workers" validate:"gte=0"`
}

// PayoutModeConfig is one payout mode of a book. Leg and hit counts are string keys as they
// come from YAML.
type PayoutModeConfig struct {
	Mode   string                        `mapstructure:"mode" validate:"required"`
	Power  map[string]float64            `mapstructure:"power"`
	Flex   map[string]map[string]float64 `mapstructure:"flex"`
	Ladder float64                       `mapstructure:"ladder" validate:"gte=0"`
}

// OddsAPIConfig represents The Odds API client configuration
type OddsAPIConfig struct {
	BaseURL                 string  `mapstructure:"base_url" validate:"required,url"`
	APIKey                  string  `mapstructure:"api_key"`
	Regions                 string  `mapstructure:"regions" validate:"required"`
	TimeoutSeconds          int     `mapstructure:"timeout_seconds" validate:"gt=0"`
	RequestsPerSecond       float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst                   int     `mapstructure:"burst" validate:"gt=0"`
	MaxRetries              int     `mapstructure:"max_retries" validate:"gte=0"`
	CircuitBreakerThreshold int     `mapstructure:"circuit_breaker_threshold" validate:"gt=0"`
}

// SleeperConfig represents the Sleeper trending players client configuration
type SleeperConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	LookbackHours  int    `mapstructure:"lookback_hours" validate:"gt=0"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig represents database connection configuration. The scan history store is
// optional; the remaining fields are only checked when Enabled is set.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ServerConfig represents the HTTP API server configuration
type ServerConfig struct {
	Port                int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"gt=0"`
}

// ScheduleConfig represents periodic scan scheduling
type ScheduleConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ScanCron     string `mapstructure:"scan_cron" validate:"required_if=Enabled true"`
	Sport        string `mapstructure:"sport" validate:"omitempty,sport"`
	Scope        string `mapstructure:"scope" validate:"omitempty,scope"`
	SaveVersions bool   `mapstructure:"save_versions"`
}

// SecretsConfig selects the AWS Secrets Manager secret overlaid on the configuration
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		sslMode,
	)
}

// CacheTTL returns the scan cache lifetime for a scope
func (c *Config) CacheTTL(scope string) time.Duration {
	if scope == "full" {
		return time.Duration(c.Scanner.FullCacheTTLSeconds) * time.Second
	}
	return time.Duration(c.Scanner.SmartCacheTTLSeconds) * time.Second
}

// ScanTimeout returns the deadline applied to one scan
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scanner.ScanTimeoutSeconds) * time.Second
}
