// Package fees estimates the network cost of executing a triangular
// cycle, in lamports. The estimate is subtracted from the final hop
// output before profit is computed, so it is expressed in base units of
// the cycle's first token (SOL-denominated universes).
package fees

import (
	"context"
	"fmt"
	"sort"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/solana"
)

// baseSignatureFee is the current per-signature fee in lamports.
const baseSignatureFee = 5000

// Static returns a fixed configured fee estimate.
type Static struct {
	units uint64
}

// NewStatic creates a static estimator
func NewStatic(units uint64) *Static {
	return &Static{units: units}
}

// Units returns the configured fee estimate in base units
func (s *Static) Units() uint64 {
	return s.units
}

// RPCEstimator derives a fee estimate from recent prioritization fees
// reported by the cluster.
type RPCEstimator struct {
	pool           *solana.Pool
	signatureCount uint64
	computeUnits   uint64
	logger         *observability.Logger
}

// RPCEstimatorConfig holds RPC estimator configuration
type RPCEstimatorConfig struct {
	Pool *solana.Pool

	// SignatureCount is the number of transaction signatures a full
	// cycle needs (one per hop by default).
	SignatureCount uint64

	// ComputeUnits is the total compute budget across the cycle's
	// transactions. Prioritization fees are priced per compute unit.
	ComputeUnits uint64

	Logger *observability.Logger
}

// NewRPCEstimator creates an estimator backed by the RPC pool
func NewRPCEstimator(cfg RPCEstimatorConfig) (*RPCEstimator, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("RPC pool is required")
	}
	if cfg.SignatureCount == 0 {
		cfg.SignatureCount = 3
	}
	if cfg.ComputeUnits == 0 {
		// Aggregator swaps run around 200k compute units per hop
		cfg.ComputeUnits = 600_000
	}

	return &RPCEstimator{
		pool:           cfg.Pool,
		signatureCount: cfg.SignatureCount,
		computeUnits:   cfg.ComputeUnits,
		logger:         cfg.Logger,
	}, nil
}

// Estimate fetches recent prioritization fees and returns the total
// expected cycle cost in lamports.
func (e *RPCEstimator) Estimate(ctx context.Context) (uint64, error) {
	client, err := e.pool.Client()
	if err != nil {
		return 0, err
	}

	recent, err := client.GetRecentPrioritizationFees(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch prioritization fees: %w", err)
	}

	samples := make([]uint64, 0, len(recent))
	for _, entry := range recent {
		samples = append(samples, entry.PrioritizationFee)
	}

	// Median micro-lamports per compute unit; an idle cluster reports
	// all zeros, which leaves just the signature fees.
	perCU := median(samples)
	priority := perCU * e.computeUnits / 1_000_000
	total := baseSignatureFee*e.signatureCount + priority

	if e.logger != nil {
		e.logger.Debug("estimated cycle fee",
			"samples", len(samples),
			"median_micro_lamports_per_cu", perCU,
			"priority_lamports", priority,
			"total_lamports", total,
		)
	}

	return total, nil
}

func median(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]uint64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
