package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Tokens:             []string{"SOL", "USDC", "USDT"},
			StartAmount:        1.0,
			MinProfitThreshold: 0.005,
			MaxSlippage:        0.01,
			MinConfidence:      0.6,
			PollingIntervalMs:  10000,
			BatchSize:          5,
			SlippageBps:        50,
			QuoteTimeoutMs:     10000,
			EstimatedFeeUnits:  10000,
		},
		Jupiter: JupiterConfig{
			BaseURL:      "https://quote-api.jup.ag",
			TokenListURL: "https://token.jup.ag/strict",
			Timeout:      10 * time.Second,
		},
		Solana: SolanaConfig{
			RPCEndpoints: []string{"https://api.mainnet-beta.solana.com"},
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		AWS: AWSConfig{
			Region:      "us-east-1",
			SNSTopicARN: "arn:aws:sns:us-east-1:000000000000:triarb-opportunities",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "zero start amount",
			mutate:  func(c *Config) { c.Scanner.StartAmount = 0 },
			wantMsg: "start amount",
		},
		{
			name:    "negative start amount",
			mutate:  func(c *Config) { c.Scanner.StartAmount = -1.5 },
			wantMsg: "start amount",
		},
		{
			name:    "negative profit threshold",
			mutate:  func(c *Config) { c.Scanner.MinProfitThreshold = -0.1 },
			wantMsg: "min profit threshold",
		},
		{
			name:    "negative max slippage",
			mutate:  func(c *Config) { c.Scanner.MaxSlippage = -1 },
			wantMsg: "max slippage",
		},
		{
			name:    "confidence above one",
			mutate:  func(c *Config) { c.Scanner.MinConfidence = 1.5 },
			wantMsg: "min confidence",
		},
		{
			name:    "zero polling interval",
			mutate:  func(c *Config) { c.Scanner.PollingIntervalMs = 0 },
			wantMsg: "polling interval",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Scanner.BatchSize = 0 },
			wantMsg: "batch size",
		},
		{
			name:    "slippage bps out of range",
			mutate:  func(c *Config) { c.Scanner.SlippageBps = 20000 },
			wantMsg: "slippage bps",
		},
		{
			name:    "missing jupiter base url",
			mutate:  func(c *Config) { c.Jupiter.BaseURL = "" },
			wantMsg: "jupiter base URL",
		},
		{
			name:    "no rpc endpoints",
			mutate:  func(c *Config) { c.Solana.RPCEndpoints = nil },
			wantMsg: "RPC endpoint",
		},
		{
			name:    "missing redis address",
			mutate:  func(c *Config) { c.Redis.Address = "" },
			wantMsg: "redis address",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Observability.Logging.Level = "verbose" },
			wantMsg: "log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Observability.Logging.Format = "xml" },
			wantMsg: "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestConfig_EmptySNSTopicDisablesPublishing(t *testing.T) {
	cfg := validConfig()
	cfg.AWS.SNSTopicARN = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("empty SNS topic ARN should validate (publishing disabled), got %v", err)
	}
}

func TestConfig_FewTokensIsLegal(t *testing.T) {
	// Fewer than three tokens yields an empty cycle set, not a config error
	cfg := validConfig()
	cfg.Scanner.Tokens = []string{"SOL", "USDC"}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected two-token universe to validate, got %v", err)
	}
}
