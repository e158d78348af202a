package scanner

import (
	"fmt"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/config"
)

// Settings is the runtime-mutable scanning configuration. The scanner
// snapshots it at the start of every pass and re-reads the polling
// interval before every tick, so updates take effect on the next pass
// without a restart.
type Settings struct {
	// StartAmount is the first-hop input in human-readable units of each
	// cycle's first token. The evaluator scales it into base units per
	// cycle using the first token's decimals, so a 9-decimal and a
	// 6-decimal first token start from the same economic size.
	StartAmount float64

	// MinProfitThreshold is the acceptance threshold as a fraction
	// (0.005 = 0.5%).
	MinProfitThreshold float64

	// MaxSlippage is the maximum tolerated estimated slippage fraction.
	MaxSlippage float64

	// MinConfidence is the minimum confidence score for acceptance.
	MinConfidence float64

	// PollingInterval is the delay between scan passes.
	PollingInterval time.Duration

	// BatchSize is the number of cycles evaluated concurrently per batch.
	BatchSize int

	// SlippageBps is the slippage tolerance forwarded to the quote API.
	SlippageBps int

	// QuoteTimeout is the per-hop quote deadline.
	QuoteTimeout time.Duration
}

// SettingsFromConfig builds Settings from the loaded configuration.
func SettingsFromConfig(cfg *config.ScannerConfig) Settings {
	return Settings{
		StartAmount:        cfg.StartAmount,
		MinProfitThreshold: cfg.MinProfitThreshold,
		MaxSlippage:        cfg.MaxSlippage,
		MinConfidence:      cfg.MinConfidence,
		PollingInterval:    time.Duration(cfg.PollingIntervalMs) * time.Millisecond,
		BatchSize:          cfg.BatchSize,
		SlippageBps:        cfg.SlippageBps,
		QuoteTimeout:       time.Duration(cfg.QuoteTimeoutMs) * time.Millisecond,
	}
}

// Validate checks the settings for a scan pass. An invalid snapshot
// turns the pass into a no-op, never a crash.
func (s Settings) Validate() error {
	if !(s.StartAmount > 0) {
		return fmt.Errorf("start amount must be positive")
	}
	if s.MinProfitThreshold < 0 {
		return fmt.Errorf("min profit threshold must be >= 0")
	}
	if s.MaxSlippage < 0 {
		return fmt.Errorf("max slippage must be >= 0")
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0, 1]")
	}
	if s.PollingInterval <= 0 {
		return fmt.Errorf("polling interval must be positive")
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if s.SlippageBps < 0 || s.SlippageBps > 10000 {
		return fmt.Errorf("slippage bps must be in [0, 10000]")
	}
	if s.QuoteTimeout <= 0 {
		return fmt.Errorf("quote timeout must be positive")
	}
	return nil
}
