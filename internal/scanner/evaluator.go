package scanner

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/amount"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/quote"
)

// QuoteProvider fetches a simulated swap quote for one hop.
// Interfaces defined where they're consumed.
type QuoteProvider interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount *big.Int, slippageBps int) (*quote.Quote, error)
}

// FeeEstimator supplies the network fee estimate, in base units of the
// cycle's first token.
type FeeEstimator interface {
	Units() uint64
}

// Evaluator evaluates triangular cycles against acceptance thresholds.
type Evaluator struct {
	quotes  QuoteProvider
	fees    FeeEstimator
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  observability.Tracer
}

// EvaluatorConfig holds evaluator configuration
type EvaluatorConfig struct {
	Quotes QuoteProvider

	// Fees may be nil, in which case no fee is subtracted.
	Fees FeeEstimator

	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  observability.Tracer
}

// NewEvaluator creates a new cycle evaluator
func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	if cfg.Quotes == nil {
		return nil, fmt.Errorf("quote provider is required")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoopTracer()
	}

	return &Evaluator{
		quotes:  cfg.Quotes,
		fees:    cfg.Fees,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
	}, nil
}

// Evaluate runs the three hops of a cycle strictly in sequence, chaining
// base-unit amounts, and scores the result. A failed hop aborts only
// this cycle. The returned Opportunity carries the acceptance verdict in
// its Profitable field; rejection is not an error.
func (e *Evaluator) Evaluate(ctx context.Context, cycle Cycle, settings Settings) (*Opportunity, error) {
	ctx, span := e.tracer.StartSpan(ctx, "scanner.evaluate_cycle",
		observability.WithSpanAttributes(attribute.String("cycle", cycle.Key())),
	)
	defer span.End()

	opp := NewOpportunity(cycle)

	// The configured start amount is in human-readable units; scale it
	// into base units of this cycle's first token so cycles starting at
	// tokens with different decimals trade the same economic size.
	opp.StartAmount = amount.FromUI(settings.StartAmount, cycle.Tokens[0].Decimals)
	if opp.StartAmount.Sign() <= 0 {
		span.SetStatus(observability.SpanStatusError, "start amount underflow")
		return nil, fmt.Errorf("start amount %v rounds to zero base units at %d decimals",
			settings.StartAmount, cycle.Tokens[0].Decimals)
	}

	// Path A → B → C → A
	path := [4]int{0, 1, 2, 0}

	current := opp.StartAmount
	totalImpact := 0.0
	seenLabels := make(map[string]bool)

	for i := 0; i < 3; i++ {
		in := cycle.Tokens[path[i]]
		out := cycle.Tokens[path[i+1]]

		hopCtx, cancel := context.WithTimeout(ctx, settings.QuoteTimeout)
		q, err := e.quotes.GetQuote(hopCtx, in.Mint, out.Mint, current, settings.SlippageBps)
		cancel()
		if err != nil {
			if e.metrics != nil {
				e.metrics.RecordCycleResult(ctx, "failed")
			}
			span.RecordError(err)
			span.SetStatus(observability.SpanStatusError, "hop failed")
			return nil, fmt.Errorf("hop %d (%s → %s): %w", i+1, in.Symbol, out.Symbol, err)
		}

		totalImpact += q.PriceImpactPct
		for _, label := range q.RouteLabels {
			if !seenLabels[label] {
				seenLabels[label] = true
				opp.RouteLabels = append(opp.RouteLabels, label)
			}
		}

		opp.Hops = append(opp.Hops, Hop{
			InputSymbol:    in.Symbol,
			OutputSymbol:   out.Symbol,
			InputMint:      in.Mint,
			OutputMint:     out.Mint,
			InAmount:       current,
			OutAmount:      q.OutAmount,
			PriceImpactPct: q.PriceImpactPct,
			RouteLabels:    q.RouteLabels,
		})

		current = q.OutAmount
	}

	opp.FinalAmount = current

	var feeUnits uint64
	if e.fees != nil {
		feeUnits = e.fees.Units()
	}
	opp.FeeUnits = feeUnits

	fee := AcquireBigInt().SetUint64(feeUnits)
	opp.NetAmount = new(big.Int).Sub(opp.FinalAmount, fee)
	ReleaseBigInt(fee)

	opp.ProfitPct = amount.PercentChange(opp.StartAmount, opp.NetAmount)
	opp.TotalPriceImpactPct = totalImpact
	opp.EstimatedSlippage = math.Abs(totalImpact) / 100

	opp.Confidence = confidenceScore(totalImpact, opp.ProfitPct)

	opp.Profitable = opp.ProfitPct >= settings.MinProfitThreshold*100 &&
		opp.EstimatedSlippage <= settings.MaxSlippage &&
		opp.Confidence >= settings.MinConfidence

	if e.metrics != nil {
		if opp.Profitable {
			e.metrics.RecordCycleResult(ctx, "accepted")
			e.metrics.RecordOpportunity(ctx, cycle.Key(), opp.ProfitPct)
		} else {
			e.metrics.RecordCycleResult(ctx, "rejected")
		}
	}

	span.SetAttributes(
		attribute.Float64("profit_pct", opp.ProfitPct),
		attribute.Bool("profitable", opp.Profitable),
	)

	if e.logger != nil {
		e.logger.Debug("cycle evaluated",
			"cycle", opp.Cycle,
			"profit_pct", opp.ProfitPct,
			"total_impact_pct", totalImpact,
			"estimated_slippage", opp.EstimatedSlippage,
			"confidence", opp.Confidence,
			"profitable", opp.Profitable,
		)
	}

	return opp, nil
}

// confidenceScore is a coarse heuristic, not a calibrated probability:
// start at 0.5, reward low aggregate impact and higher profit, clamp to
// [0, 1].
func confidenceScore(totalImpact, profitPct float64) float64 {
	confidence := 0.5
	if math.Abs(totalImpact) < 1 {
		confidence += 0.2
	}
	if profitPct > 1 {
		confidence += 0.2
	}
	if profitPct > 2 {
		confidence += 0.1
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
