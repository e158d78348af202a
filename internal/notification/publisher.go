// Package notification delivers accepted opportunities to downstream
// consumers: an SNS topic for machine consumers and the console for
// operators.
package notification

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/scanner"
)

// snsAPI is the publishing seam over the SNS client.
type snsAPI interface {
	Publish(ctx context.Context, topicARN string, message interface{}, attributes map[string]string) error
}

// SNSPublisher publishes opportunities to an SNS topic. Consumers can
// filter on the message attributes without parsing the payload.
type SNSPublisher struct {
	client   snsAPI
	topicARN string
	logger   *observability.Logger
}

// SNSPublisherConfig holds SNS publisher configuration
type SNSPublisherConfig struct {
	Client   snsAPI
	TopicARN string
	Logger   *observability.Logger
}

// NewSNSPublisher creates a new SNS opportunity publisher
func NewSNSPublisher(cfg SNSPublisherConfig) (*SNSPublisher, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("SNS client is required")
	}
	if cfg.TopicARN == "" {
		return nil, fmt.Errorf("SNS topic ARN is required")
	}

	return &SNSPublisher{
		client:   cfg.Client,
		topicARN: cfg.TopicARN,
		logger:   cfg.Logger,
	}, nil
}

// Publish sends the opportunity to the topic with filterable attributes.
// Big integers travel as decimal strings in the payload.
func (p *SNSPublisher) Publish(ctx context.Context, opp *scanner.Opportunity) error {
	attributes := map[string]string{
		"cycle":      opp.Cycle,
		"profit_pct": strconv.FormatFloat(opp.ProfitPct, 'f', -1, 64),
		"confidence": strconv.FormatFloat(opp.Confidence, 'f', -1, 64),
		"profitable": strconv.FormatBool(opp.Profitable),
	}

	if err := p.client.Publish(ctx, p.topicARN, opp.ToSerializable(), attributes); err != nil {
		return fmt.Errorf("failed to publish opportunity %s: %w", opp.OpportunityID, err)
	}

	if p.logger != nil {
		p.logger.Info("opportunity published",
			"opportunity_id", opp.OpportunityID,
			"cycle", opp.Cycle,
			"profit_pct", opp.ProfitPct,
		)
	}

	return nil
}

// Callback adapts the publisher to the scanner's dispatch signature.
func (p *SNSPublisher) Callback() scanner.Callback {
	return func(ctx context.Context, opp *scanner.Opportunity) error {
		return p.Publish(ctx, opp)
	}
}
