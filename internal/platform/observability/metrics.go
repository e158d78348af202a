package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Metrics holds all application metrics
type Metrics struct {
	meter metric.Meter

	// Scan pass metrics
	ScanPassDuration metric.Float64Histogram
	ScanPasses       metric.Int64Counter

	// Cycle evaluation metrics
	CyclesEvaluated metric.Int64Counter

	// Opportunity metrics
	OpportunitiesFound   metric.Int64Counter
	OpportunityProfitPct metric.Float64Histogram

	// Quote API metrics
	QuoteCalls    metric.Int64Counter
	QuoteDuration metric.Float64Histogram

	// Callback dispatch metrics
	CallbackErrors metric.Int64Counter

	// Publish (SNS) metrics
	PublishCalls    metric.Int64Counter
	PublishDuration metric.Float64Histogram

	// Fee estimation metrics
	EstimatedFeeUnits metric.Int64Gauge

	// RPC endpoint metrics
	RPCEndpointHealth metric.Int64Gauge

	// Cache metrics
	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter

	// Circuit breaker metrics
	CircuitBreakerState metric.Int64Gauge

	// Error metrics
	Errors metric.Int64Counter

	// Prometheus exporter for HTTP handler
	exporter *prometheus.Exporter
}

// NewMetrics creates a new Metrics instance
func NewMetrics(serviceName string, enabled bool) (*Metrics, error) {
	if !enabled {
		return &Metrics{}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	meter := provider.Meter(serviceName)

	m := &Metrics{
		meter:    meter,
		exporter: exporter,
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

// initMetrics initializes all metric instruments
func (m *Metrics) initMetrics() error {
	var err error

	m.ScanPassDuration, err = m.meter.Float64Histogram(
		"triarb.scan.pass.duration",
		metric.WithDescription("Scan pass duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.ScanPasses, err = m.meter.Int64Counter(
		"triarb.scan.passes",
		metric.WithDescription("Total number of scan passes completed"),
	)
	if err != nil {
		return err
	}

	m.CyclesEvaluated, err = m.meter.Int64Counter(
		"triarb.cycles.evaluated",
		metric.WithDescription("Total cycle evaluations by outcome (accepted/rejected/failed)"),
	)
	if err != nil {
		return err
	}

	m.OpportunitiesFound, err = m.meter.Int64Counter(
		"triarb.opportunities.found",
		metric.WithDescription("Total accepted arbitrage opportunities"),
	)
	if err != nil {
		return err
	}

	m.OpportunityProfitPct, err = m.meter.Float64Histogram(
		"triarb.opportunities.profit_pct",
		metric.WithDescription("Accepted opportunity net profit percentage"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return err
	}

	m.QuoteCalls, err = m.meter.Int64Counter(
		"triarb.quote.calls",
		metric.WithDescription("Total quote API calls"),
	)
	if err != nil {
		return err
	}

	m.QuoteDuration, err = m.meter.Float64Histogram(
		"triarb.quote.duration",
		metric.WithDescription("Quote API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.CallbackErrors, err = m.meter.Int64Counter(
		"triarb.callback.errors",
		metric.WithDescription("Total opportunity callback failures"),
	)
	if err != nil {
		return err
	}

	m.PublishCalls, err = m.meter.Int64Counter(
		"triarb.publish.calls",
		metric.WithDescription("Total opportunity publish calls"),
	)
	if err != nil {
		return err
	}

	m.PublishDuration, err = m.meter.Float64Histogram(
		"triarb.publish.duration",
		metric.WithDescription("Opportunity publish duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.EstimatedFeeUnits, err = m.meter.Int64Gauge(
		"triarb.fee.estimated_units",
		metric.WithDescription("Current estimated network fee in input-token base units"),
	)
	if err != nil {
		return err
	}

	m.RPCEndpointHealth, err = m.meter.Int64Gauge(
		"triarb.rpc.endpoint.health",
		metric.WithDescription("RPC endpoint health status (1=healthy, 0=unhealthy)"),
	)
	if err != nil {
		return err
	}

	m.CacheHits, err = m.meter.Int64Counter(
		"triarb.cache.hits",
		metric.WithDescription("Total cache hits"),
	)
	if err != nil {
		return err
	}

	m.CacheMisses, err = m.meter.Int64Counter(
		"triarb.cache.misses",
		metric.WithDescription("Total cache misses"),
	)
	if err != nil {
		return err
	}

	m.CircuitBreakerState, err = m.meter.Int64Gauge(
		"triarb.circuit_breaker.state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=open, 2=half-open)"),
	)
	if err != nil {
		return err
	}

	m.Errors, err = m.meter.Int64Counter(
		"triarb.errors",
		metric.WithDescription("Total errors encountered"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordScanPass records a completed scan pass
func (m *Metrics) RecordScanPass(ctx context.Context, duration time.Duration, cycles, accepted int) {
	if m == nil || m.ScanPasses == nil {
		return
	}
	m.ScanPassDuration.Record(ctx, float64(duration.Milliseconds()))
	m.ScanPasses.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("cycles", cycles),
		attribute.Int("accepted", accepted),
	))
}

// RecordCycleResult records the outcome of a single cycle evaluation
func (m *Metrics) RecordCycleResult(ctx context.Context, outcome string) {
	if m == nil || m.CyclesEvaluated == nil {
		return
	}
	m.CyclesEvaluated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordOpportunity records an accepted arbitrage opportunity
func (m *Metrics) RecordOpportunity(ctx context.Context, cycle string, profitPct float64) {
	if m == nil || m.OpportunitiesFound == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("cycle", cycle),
	}
	m.OpportunitiesFound.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.OpportunityProfitPct.Record(ctx, profitPct, metric.WithAttributes(attrs...))
}

// RecordQuoteCall records a quote API call
func (m *Metrics) RecordQuoteCall(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.QuoteCalls == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("status", status),
	}
	m.QuoteCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.QuoteDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCallbackError records a failed opportunity callback invocation
func (m *Metrics) RecordCallbackError(ctx context.Context) {
	if m == nil || m.CallbackErrors == nil {
		return
	}
	m.CallbackErrors.Add(ctx, 1)
}

// RecordPublish records an opportunity publish attempt
func (m *Metrics) RecordPublish(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.PublishCalls == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("status", status),
	}
	m.PublishCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.PublishDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordFeeEstimate records the current estimated fee in base units
func (m *Metrics) RecordFeeEstimate(ctx context.Context, units uint64) {
	if m == nil || m.EstimatedFeeUnits == nil {
		return
	}
	m.EstimatedFeeUnits.Record(ctx, int64(units))
}

// RecordRPCEndpointHealth records RPC endpoint health status
func (m *Metrics) RecordRPCEndpointHealth(ctx context.Context, url string, healthy bool) {
	if m == nil || m.RPCEndpointHealth == nil {
		return
	}
	val := int64(0)
	if healthy {
		val = 1
	}
	m.RPCEndpointHealth.Record(ctx, val, metric.WithAttributes(
		attribute.String("url", url),
	))
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(ctx context.Context, layer string) {
	if m == nil || m.CacheHits == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("layer", layer)))
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(ctx context.Context, layer string) {
	if m == nil || m.CacheMisses == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("layer", layer)))
}

// SetCircuitBreakerState sets circuit breaker state
// 0 = closed, 1 = open, 2 = half-open
func (m *Metrics) SetCircuitBreakerState(ctx context.Context, service string, state int64) {
	if m == nil || m.CircuitBreakerState == nil {
		return
	}
	m.CircuitBreakerState.Record(ctx, state, metric.WithAttributes(attribute.String("service", service)))
}

// RecordError records an error
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	if m == nil || m.Errors == nil {
		return
	}
	m.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("type", errorType)))
}

// Handler returns the HTTP handler for Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	// The OpenTelemetry Prometheus exporter registers with the default
	// Prometheus registry, so the standard handler serves everything.
	return promhttp.Handler()
}
