// Package config loads and validates scanner configuration from file
// and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the scanner service
type Config struct {
	Scanner       ScannerConfig       `mapstructure:"scanner"`
	Jupiter       JupiterConfig       `mapstructure:"jupiter"`
	Solana        SolanaConfig        `mapstructure:"solana"`
	Redis         RedisConfig         `mapstructure:"redis"`
	AWS           AWSConfig           `mapstructure:"aws"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	HTTP          HTTPConfig          `mapstructure:"http"`
}

// ScannerConfig holds triangular-cycle scanning settings.
// These are the startup values; the scanner exposes them for runtime
// mutation through its own configuration surface.
type ScannerConfig struct {
	// Tokens is the list of token symbols forming the scan universe.
	// Symbols are resolved against the mint registry or the token catalog.
	Tokens []string `mapstructure:"tokens"`

	// StartAmount is the first-hop input in human-readable units of each
	// cycle's first token. The evaluator scales it into base units per
	// cycle using the first token's decimals.
	StartAmount float64 `mapstructure:"start_amount"`

	// MinProfitThreshold is the minimum net profit as a fraction
	// (0.005 = 0.5%).
	MinProfitThreshold float64 `mapstructure:"min_profit_threshold"`

	// MaxSlippage is the maximum tolerated estimated slippage fraction.
	MaxSlippage float64 `mapstructure:"max_slippage"`

	// MinConfidence is the minimum confidence score for acceptance.
	MinConfidence float64 `mapstructure:"min_confidence"`

	// PollingIntervalMs is the delay between scan passes.
	PollingIntervalMs int `mapstructure:"polling_interval_ms"`

	// BatchSize is the number of cycles evaluated concurrently per batch.
	BatchSize int `mapstructure:"batch_size"`

	// SlippageBps is the slippage tolerance forwarded to the quote API.
	SlippageBps int `mapstructure:"slippage_bps"`

	// QuoteTimeoutMs is the per-hop quote timeout.
	QuoteTimeoutMs int `mapstructure:"quote_timeout_ms"`

	// EstimatedFeeUnits is the fallback network fee estimate, in base
	// units of the cycle's first token.
	EstimatedFeeUnits uint64 `mapstructure:"estimated_fee_units"`
}

// JupiterConfig holds Jupiter aggregator API configuration
type JupiterConfig struct {
	BaseURL      string          `mapstructure:"base_url"`
	TokenListURL string          `mapstructure:"token_list_url"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Timeout      time.Duration   `mapstructure:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// SolanaConfig holds Solana RPC configuration
type SolanaConfig struct {
	RPCEndpoints        []string      `mapstructure:"rpc_endpoints"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	Fees                FeesConfig    `mapstructure:"fees"`
}

// FeesConfig holds network fee estimation settings
type FeesConfig struct {
	// Enabled turns on the RPC-backed prioritization fee estimator.
	// When disabled, the configured estimated_fee_units constant is used.
	Enabled         bool          `mapstructure:"enabled"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AWSConfig holds AWS service configuration
type AWSConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Region      string `mapstructure:"region"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
}

// CacheConfig holds caching configuration
type CacheConfig struct {
	L1MaxSize int           `mapstructure:"l1_max_size"`
	L2TTL     time.Duration `mapstructure:"l2_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TracingConfig holds tracing settings
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not fatal if env vars are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Scanner defaults
	v.SetDefault("scanner.tokens", []string{"SOL", "USDC", "USDT"})
	v.SetDefault("scanner.start_amount", 1.0) // 1 unit of each cycle's first token
	v.SetDefault("scanner.min_profit_threshold", 0.005)
	v.SetDefault("scanner.max_slippage", 0.01)
	v.SetDefault("scanner.min_confidence", 0.6)
	v.SetDefault("scanner.polling_interval_ms", 10000)
	v.SetDefault("scanner.batch_size", 5)
	v.SetDefault("scanner.slippage_bps", 50)
	v.SetDefault("scanner.quote_timeout_ms", 10000)
	v.SetDefault("scanner.estimated_fee_units", 10000)

	// Jupiter defaults
	v.SetDefault("jupiter.base_url", "https://quote-api.jup.ag")
	v.SetDefault("jupiter.token_list_url", "https://token.jup.ag/strict")
	v.SetDefault("jupiter.rate_limit.requests_per_minute", 600)
	v.SetDefault("jupiter.rate_limit.burst", 20)
	v.SetDefault("jupiter.timeout", "10s")

	// Solana defaults
	v.SetDefault("solana.rpc_endpoints", []string{"https://api.mainnet-beta.solana.com"})
	v.SetDefault("solana.health_check_interval", "30s")
	v.SetDefault("solana.fees.enabled", false)
	v.SetDefault("solana.fees.refresh_interval", "60s")

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// AWS defaults
	v.SetDefault("aws.endpoint", "http://localhost:4566")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.sns_topic_arn", "arn:aws:sns:us-east-1:000000000000:triarb-opportunities")

	// Cache defaults
	v.SetDefault("cache.l1_max_size", 1000)
	v.SetDefault("cache.l2_ttl", "10m")

	// Observability defaults
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 9091)
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")

	// HTTP defaults
	v.SetDefault("http.port", 8080)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Scanner validation: fewer than three tokens yields no cycles, which
	// is a legal (empty) universe, but thresholds must still be sane.
	if !(c.Scanner.StartAmount > 0) {
		return fmt.Errorf("start amount must be positive")
	}
	if c.Scanner.MinProfitThreshold < 0 {
		return fmt.Errorf("min profit threshold must be >= 0")
	}
	if c.Scanner.MaxSlippage < 0 {
		return fmt.Errorf("max slippage must be >= 0")
	}
	if c.Scanner.MinConfidence < 0 || c.Scanner.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0, 1]")
	}
	if c.Scanner.PollingIntervalMs <= 0 {
		return fmt.Errorf("polling interval must be positive")
	}
	if c.Scanner.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.Scanner.SlippageBps < 0 || c.Scanner.SlippageBps > 10000 {
		return fmt.Errorf("slippage bps must be in [0, 10000]")
	}

	// Jupiter validation
	if c.Jupiter.BaseURL == "" {
		return fmt.Errorf("jupiter base URL is required")
	}

	// Solana validation
	if len(c.Solana.RPCEndpoints) == 0 {
		return fmt.Errorf("at least one RPC endpoint is required")
	}

	// Redis validation
	if c.Redis.Address == "" {
		return fmt.Errorf("redis address is required")
	}

	// AWS validation. An empty topic ARN disables SNS publishing.
	if c.AWS.Region == "" {
		return fmt.Errorf("AWS region is required")
	}

	// Observability validation
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Observability.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Observability.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Observability.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Observability.Logging.Format)
	}

	return nil
}
