// Package quote fetches swap quotes from the Jupiter v6 aggregator API.
// The aggregator is treated as a black box: one request in, one simulated
// swap result out. Route selection happens entirely on the Jupiter side.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/resilience"
)

// ErrNoRoute is returned when the aggregator cannot find any route between
// the requested mints. This is a stable answer for the pair, not a
// transient failure, so it is never retried.
var ErrNoRoute = errors.New("could not find any route")

// Quote is the parsed result of a single simulated swap.
type Quote struct {
	InputMint  string
	OutputMint string

	// InAmount is the requested input amount in base units.
	InAmount *big.Int

	// OutAmount is the simulated output amount in base units of the
	// output token.
	OutAmount *big.Int

	// SlippageBps is the slippage tolerance the quote was computed with.
	SlippageBps int

	// PriceImpactPct is the signed price impact percentage reported by
	// the aggregator for this swap.
	PriceImpactPct float64

	// RouteLabels lists the venue labels of the route plan, in hop order.
	RouteLabels []string

	Timestamp time.Time
}

// quoteResponse is the Jupiter v6 /quote wire format. Amounts arrive as
// integer strings and price impact as a decimal string.
type quoteResponse struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	SlippageBps    int    `json:"slippageBps"`
	PriceImpactPct string `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			Label string `json:"label"`
		} `json:"swapInfo"`
		Percent int `json:"percent"`
	} `json:"routePlan"`
}

// errorResponse is the Jupiter error body shape.
type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// Client fetches quotes from the Jupiter aggregator with rate limiting,
// retry, and circuit breaking.
type Client struct {
	client   *http.Client
	baseURL  string
	limiter  *resilience.AdaptiveLimiter
	logger   *observability.Logger
	metrics  *observability.Metrics
	retryCfg resilience.RetryConfig
	cb       *resilience.CircuitBreaker

	healthMu sync.RWMutex
	health   ProviderHealth
}

// ClientConfig holds Jupiter client configuration
type ClientConfig struct {
	BaseURL        string
	RateLimitRPM   int
	RateLimitBurst int
	Timeout        time.Duration
	Logger         *observability.Logger
	Metrics        *observability.Metrics
	RetryConfig    resilience.RetryConfig
	CircuitBreaker *resilience.CircuitBreaker
}

// NewClient creates a new Jupiter quote client
func NewClient(cfg ClientConfig) (*Client, error) {
	// Set defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://quote-api.jup.ag"
	}
	if cfg.RateLimitRPM == 0 {
		cfg.RateLimitRPM = 600
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = resilience.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
			Jitter:      0.2,
		}
	}

	baseRate := float64(cfg.RateLimitRPM) / 60.0
	limiter := resilience.NewAdaptiveLimiter(resilience.AdaptiveLimiterConfig{
		BaseRate: baseRate,
		MinRate:  baseRate / 10,
		MaxRate:  baseRate * 2,
		Burst:    cfg.RateLimitBurst,
	})

	cb := cfg.CircuitBreaker
	if cb == nil {
		cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "jupiter",
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
			OnStateChange: func(from, to resilience.State) {
				if cfg.Metrics != nil {
					cfg.Metrics.SetCircuitBreakerState(context.Background(), "jupiter", int64(to))
				}
			},
			// A missing route is a stable answer for the pair, not a
			// provider outage.
			IsFailure: func(err error) bool {
				return !errors.Is(err, ErrNoRoute)
			},
		})
	}
	if cfg.Metrics != nil {
		cfg.Metrics.SetCircuitBreakerState(context.Background(), "jupiter", cb.StateInt())
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}

	return &Client{
		client:   httpClient,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		limiter:  limiter,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		retryCfg: cfg.RetryConfig,
		cb:       cb,
		health: ProviderHealth{
			Provider: "jupiter",
		},
	}, nil
}

// GetQuote fetches a simulated swap quote. The amount is in base units of
// the input token. Per-hop deadlines are the caller's responsibility and
// arrive through ctx.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount *big.Int, slippageBps int) (*Quote, error) {
	if inputMint == "" || outputMint == "" {
		return nil, fmt.Errorf("invalid argument: input and output mints are required")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid argument: amount must be positive")
	}

	return resilience.ExecuteWithResult(c.cb, ctx, func(ctx context.Context) (*Quote, error) {
		return resilience.RetryWithResult(ctx, c.retryCfg, func(ctx context.Context) (*Quote, error) {
			// Wait for rate limiter
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter error: %w", err)
			}

			start := time.Now()
			quote, err := c.fetchQuote(ctx, inputMint, outputMint, amount, slippageBps)
			duration := time.Since(start)

			c.recordHealth(err, duration)

			switch {
			case err == nil:
				c.limiter.RecordSuccess()
			case strings.Contains(err.Error(), "status code 429"):
				c.limiter.RecordRateLimitError()
			default:
				c.limiter.RecordError()
			}

			if c.metrics != nil {
				status := "success"
				if errors.Is(err, ErrNoRoute) {
					status = "no_route"
				} else if err != nil {
					status = "error"
				}
				c.metrics.RecordQuoteCall(ctx, status, duration)
			}

			return quote, err
		})
	})
}

func (c *Client) fetchQuote(ctx context.Context, inputMint, outputMint string, amount *big.Int, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", amount.String())
	q.Set("slippageBps", strconv.Itoa(slippageBps))
	reqURL := c.baseURL + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		// Unroutable pairs come back as a 400 with a stable error body.
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil &&
			strings.Contains(strings.ToLower(apiErr.Error), "could not find any route") {
			return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, inputMint, outputMint)
		}

		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var apiResp quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	quote, err := c.parseQuote(&apiResp, inputMint, outputMint, amount, slippageBps)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("fetched Jupiter quote",
			"input_mint", inputMint,
			"output_mint", outputMint,
			"in_amount", amount.String(),
			"out_amount", quote.OutAmount.String(),
			"price_impact_pct", quote.PriceImpactPct,
			"route_labels", strings.Join(quote.RouteLabels, ","),
		)
	}

	return quote, nil
}

// parseQuote converts the wire response into a Quote. Amounts are integer
// strings; a malformed or non-positive outAmount is a hard error since
// the evaluator chains it into the next hop.
func (c *Client) parseQuote(apiResp *quoteResponse, inputMint, outputMint string, amount *big.Int, slippageBps int) (*Quote, error) {
	outAmount := new(big.Int)
	if _, ok := outAmount.SetString(apiResp.OutAmount, 10); !ok {
		return nil, fmt.Errorf("invalid outAmount: %q", apiResp.OutAmount)
	}
	if outAmount.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive outAmount: %s", outAmount)
	}

	// Price impact arrives as a decimal string and keeps its sign. An
	// empty value means the aggregator reported no impact.
	impact := 0.0
	if apiResp.PriceImpactPct != "" {
		parsed, err := strconv.ParseFloat(apiResp.PriceImpactPct, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid priceImpactPct: %q", apiResp.PriceImpactPct)
		}
		impact = parsed
	}

	labels := make([]string, 0, len(apiResp.RoutePlan))
	for _, step := range apiResp.RoutePlan {
		if step.SwapInfo.Label != "" {
			labels = append(labels, step.SwapInfo.Label)
		}
	}

	return &Quote{
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InAmount:       new(big.Int).Set(amount),
		OutAmount:      outAmount,
		SlippageBps:    slippageBps,
		PriceImpactPct: impact,
		RouteLabels:    labels,
		Timestamp:      time.Now(),
	}, nil
}

// Name returns the provider name for logging.
func (c *Client) Name() string {
	return "jupiter"
}

// Health returns the current health status of the Jupiter client.
func (c *Client) Health() ProviderHealth {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	h := c.health
	if c.cb != nil {
		h.CircuitState = c.cb.State().String()
	}
	return h
}

// LimiterStats exposes adaptive limiter statistics for diagnostics.
func (c *Client) LimiterStats() resilience.AdaptiveLimiterStats {
	return c.limiter.Stats()
}

func (c *Client) recordHealth(err error, duration time.Duration) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastDuration = duration
	if err == nil {
		c.health.LastSuccess = time.Now()
		c.health.LastError = ""
		c.health.ConsecutiveFailures = 0
		return
	}

	c.health.LastFailure = time.Now()
	c.health.LastError = err.Error()
	c.health.ConsecutiveFailures++
}
