package notification

import (
	"context"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/scanner"
)

// NoOpPublisher logs opportunities instead of publishing them. Use this
// when SNS is not configured (local development, testing).
type NoOpPublisher struct {
	logger *observability.Logger
}

// NewNoOpPublisher creates a new no-op publisher that only logs opportunities.
func NewNoOpPublisher(logger *observability.Logger) *NoOpPublisher {
	return &NoOpPublisher{
		logger: logger,
	}
}

// Publish logs the opportunity instead of publishing to SNS.
func (p *NoOpPublisher) Publish(ctx context.Context, opp *scanner.Opportunity) error {
	if p.logger != nil {
		p.logger.Info("opportunity detected (SNS disabled)",
			"opportunity_id", opp.OpportunityID,
			"cycle", opp.Cycle,
			"profitable", opp.IsProfitable(),
			"profit_pct", opp.ProfitPct,
			"confidence", opp.Confidence,
		)
	}
	return nil
}

// Callback adapts the publisher to the scanner's dispatch signature.
func (p *NoOpPublisher) Callback() scanner.Callback {
	return p.Publish
}
