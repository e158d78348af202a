// Package solana manages Solana RPC connections with health tracking
// and failover across multiple endpoints.
package solana

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
)

// Endpoint represents a single Solana RPC endpoint
type Endpoint struct {
	URL     string
	Client  *rpc.Client
	healthy atomic.Bool
}

// Healthy reports whether the endpoint passed its last health check.
func (e *Endpoint) Healthy() bool {
	return e.healthy.Load()
}

// Pool manages multiple RPC endpoints with health tracking and failover
type Pool struct {
	endpoints      []*Endpoint
	current        int
	mu             sync.RWMutex
	logger         *observability.Logger
	metrics        *observability.Metrics
	healthCheckTTL time.Duration

	cancel context.CancelFunc
}

// PoolConfig holds RPC pool configuration
type PoolConfig struct {
	Endpoints      []string
	Logger         *observability.Logger
	Metrics        *observability.Metrics
	HealthCheckTTL time.Duration
}

// NewPool creates a new RPC pool. Endpoints start healthy and are
// demoted by the background health checker; RPC connections are plain
// HTTP so construction itself cannot fail per endpoint.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}

	if cfg.HealthCheckTTL == 0 {
		cfg.HealthCheckTTL = 30 * time.Second
	}

	endpoints := make([]*Endpoint, 0, len(cfg.Endpoints))
	for _, url := range cfg.Endpoints {
		endpoint := &Endpoint{
			URL:    url,
			Client: rpc.New(url),
		}
		endpoint.healthy.Store(true)
		endpoints = append(endpoints, endpoint)

		if cfg.Logger != nil {
			cfg.Logger.Info("registered RPC endpoint", "url", url)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		endpoints:      endpoints,
		current:        0,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		healthCheckTTL: cfg.HealthCheckTTL,
		cancel:         cancel,
	}

	go pool.startHealthChecks(ctx)

	return pool, nil
}

// Endpoint returns the next healthy endpoint using round-robin selection
func (p *Pool) Endpoint() (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	attempts := 0
	startIdx := p.current

	for attempts < len(p.endpoints) {
		endpoint := p.endpoints[p.current]

		// Move to next endpoint for next call
		p.current = (p.current + 1) % len(p.endpoints)
		attempts++

		if endpoint.healthy.Load() {
			return endpoint, nil
		}
	}

	p.current = startIdx
	return nil, fmt.Errorf("no healthy RPC endpoints available")
}

// Client returns the next healthy RPC client using round-robin selection
func (p *Pool) Client() (*rpc.Client, error) {
	endpoint, err := p.Endpoint()
	if err != nil {
		return nil, err
	}
	return endpoint.Client, nil
}

// MarkUnhealthy marks an endpoint as unhealthy until the next successful
// health check
func (p *Pool) MarkUnhealthy(url string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, endpoint := range p.endpoints {
		if endpoint.URL == url {
			wasHealthy := endpoint.healthy.Swap(false)
			if wasHealthy {
				if p.logger != nil {
					p.logger.Warn("marking RPC endpoint as unhealthy", "url", url)
				}
				if p.metrics != nil {
					p.metrics.RecordRPCEndpointHealth(context.Background(), url, false)
				}
			}
			return
		}
	}
}

// startHealthChecks runs periodic health checks on all endpoints
func (p *Pool) startHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(p.healthCheckTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.checkAllEndpoints(ctx)
		}
	}
}

// checkAllEndpoints checks health of all endpoints concurrently
func (p *Pool) checkAllEndpoints(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	p.mu.RLock()
	endpoints := p.endpoints
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(ep *Endpoint) {
			defer wg.Done()
			p.checkEndpoint(checkCtx, ep)
		}(endpoint)
	}
	wg.Wait()
}

// checkEndpoint probes an endpoint with the getHealth RPC method
func (p *Pool) checkEndpoint(ctx context.Context, endpoint *Endpoint) {
	out, err := endpoint.Client.GetHealth(ctx)
	if err != nil || out != rpc.HealthOk {
		// Temporary context errors keep the endpoint alive
		if ctx.Err() != nil {
			if p.logger != nil {
				p.logger.Debug("RPC health check cancelled, keeping endpoint",
					"url", endpoint.URL,
				)
			}
			return
		}

		wasHealthy := endpoint.healthy.Swap(false)
		if wasHealthy && p.logger != nil {
			p.logger.LogError(ctx, "RPC endpoint health check failed", err,
				"url", endpoint.URL,
			)
		}
		if p.metrics != nil {
			p.metrics.RecordRPCEndpointHealth(ctx, endpoint.URL, false)
		}
		return
	}

	wasUnhealthy := !endpoint.healthy.Swap(true)
	if wasUnhealthy && p.logger != nil {
		p.logger.Info("RPC endpoint is now healthy", "url", endpoint.URL)
	}
	if p.metrics != nil {
		p.metrics.RecordRPCEndpointHealth(ctx, endpoint.URL, true)
	}
}

// HealthyEndpointCount returns the number of healthy endpoints
func (p *Pool) HealthyEndpointCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, endpoint := range p.endpoints {
		if endpoint.healthy.Load() {
			count++
		}
	}
	return count
}

// EndpointStatus returns health status keyed by endpoint URL
func (p *Pool) EndpointStatus() map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := make(map[string]bool, len(p.endpoints))
	for _, endpoint := range p.endpoints {
		status[endpoint.URL] = endpoint.healthy.Load()
	}
	return status
}

// Close stops the background health checker
func (p *Pool) Close() {
	p.cancel()
	if p.logger != nil {
		p.logger.Info("stopped RPC endpoint pool")
	}
}

// CurrentSlot returns the latest slot from a healthy endpoint
func (p *Pool) CurrentSlot(ctx context.Context) (uint64, error) {
	endpoint, err := p.Endpoint()
	if err != nil {
		return 0, err
	}

	slot, err := endpoint.Client.GetSlot(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		p.MarkUnhealthy(endpoint.URL)
		return 0, fmt.Errorf("failed to fetch slot: %w", err)
	}
	return slot, nil
}
