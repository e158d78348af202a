// Package tokens resolves token symbols to mints and decimals. Symbols
// are looked up in the static mint registry first, then in the Jupiter
// token catalog for anything outside it.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/cache"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/resilience"
)

const catalogCacheKey = "jupiter:tokenlist"

// Token is one entry of the Jupiter token list.
type Token struct {
	Address  string   `json:"address"`
	ChainID  int      `json:"chainId"`
	Decimals int      `json:"decimals"`
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	Tags     []string `json:"tags"`
}

// Catalog loads and indexes the Jupiter token list.
type Catalog struct {
	client   *http.Client
	listURL  string
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *observability.Logger
	metrics  *observability.Metrics
	retryCfg resilience.RetryConfig

	mu       sync.RWMutex
	bySymbol map[string]Token
	byMint   map[string]Token
	loadedAt time.Time
}

// CatalogConfig holds token catalog configuration
type CatalogConfig struct {
	ListURL     string
	Timeout     time.Duration
	Cache       cache.Cache
	CacheTTL    time.Duration
	Logger      *observability.Logger
	Metrics     *observability.Metrics
	RetryConfig resilience.RetryConfig
}

// NewCatalog creates a new token catalog
func NewCatalog(cfg CatalogConfig) *Catalog {
	if cfg.ListURL == "" {
		cfg.ListURL = "https://token.jup.ag/strict"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = resilience.DefaultRetryConfig()
	}

	return &Catalog{
		client:   &http.Client{Timeout: cfg.Timeout},
		listURL:  cfg.ListURL,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		retryCfg: cfg.RetryConfig,
	}
}

// Load fetches the token list and rebuilds the symbol and mint indexes.
// A cached list is used when present; the fetch itself is retried on
// transient failures.
func (c *Catalog) Load(ctx context.Context) error {
	var list []Token

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, catalogCacheKey); err == nil {
			if tokens, ok := cached.([]Token); ok {
				list = tokens
				if c.metrics != nil {
					c.metrics.RecordCacheHit(ctx, "tokenlist")
				}
			}
		} else if c.metrics != nil {
			c.metrics.RecordCacheMiss(ctx, "tokenlist")
		}
	}

	if list == nil {
		fetched, err := resilience.RetryWithResult(ctx, c.retryCfg, func(ctx context.Context) ([]Token, error) {
			return c.fetchList(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to load token list: %w", err)
		}
		list = fetched

		if c.cache != nil {
			if err := c.cache.Set(ctx, catalogCacheKey, list, c.cacheTTL); err != nil && c.logger != nil {
				c.logger.Warn("failed to cache token list", "error", err)
			}
		}
	}

	bySymbol := make(map[string]Token, len(list))
	byMint := make(map[string]Token, len(list))
	for _, token := range list {
		// First entry wins on symbol collisions; the strict list is
		// curated but symbols are not globally unique.
		symbol := strings.ToUpper(token.Symbol)
		if _, exists := bySymbol[symbol]; !exists {
			bySymbol[symbol] = token
		}
		byMint[token.Address] = token
	}

	c.mu.Lock()
	c.bySymbol = bySymbol
	c.byMint = byMint
	c.loadedAt = time.Now()
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("token catalog loaded", "tokens", len(list))
	}

	return nil
}

func (c *Catalog) fetchList(ctx context.Context) ([]Token, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.listURL, nil)
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
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var list []Token
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}

	return list, nil
}

// LookupSymbol returns the catalog entry for a symbol (case-insensitive).
func (c *Catalog) LookupSymbol(symbol string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.bySymbol[strings.ToUpper(symbol)]
	return token, ok
}

// LookupMint returns the catalog entry for a mint address.
func (c *Catalog) LookupMint(mint string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.byMint[mint]
	return token, ok
}

// Size returns the number of indexed catalog entries.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byMint)
}

// LoadedAt returns the time of the last successful load.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// isStablecoin reports whether the catalog tags mark the token as a
// stablecoin.
func isStablecoin(token Token) bool {
	for _, tag := range token.Tags {
		if strings.EqualFold(tag, "stablecoin") {
			return true
		}
	}
	return false
}
