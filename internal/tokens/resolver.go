package tokens

import (
	"context"
	"fmt"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/config"
)

// Resolver maps configured token symbols to full token descriptors,
// consulting the static registry first and the catalog as fallback.
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a new resolver. The catalog may be nil, in which
// case only registry symbols resolve.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve maps symbols to token info, preserving input order. Duplicate
// symbols are rejected: a universe with repeated tokens would generate
// degenerate cycles.
func (r *Resolver) Resolve(ctx context.Context, symbols []string) ([]config.TokenInfo, error) {
	seen := make(map[string]bool, len(symbols))
	result := make([]config.TokenInfo, 0, len(symbols))

	for _, symbol := range symbols {
		if seen[symbol] {
			return nil, fmt.Errorf("duplicate token symbol: %s", symbol)
		}
		seen[symbol] = true

		info, err := r.resolveOne(ctx, symbol)
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}

	return result, nil
}

func (r *Resolver) resolveOne(ctx context.Context, symbol string) (config.TokenInfo, error) {
	if info, err := config.LookupToken(symbol); err == nil {
		return info, nil
	}

	if r.catalog == nil {
		return config.TokenInfo{}, fmt.Errorf("unknown token symbol: %s", symbol)
	}

	// Lazily load the catalog the first time a non-registry symbol shows up
	if r.catalog.Size() == 0 {
		if err := r.catalog.Load(ctx); err != nil {
			return config.TokenInfo{}, fmt.Errorf("failed to resolve %s: %w", symbol, err)
		}
	}

	token, ok := r.catalog.LookupSymbol(symbol)
	if !ok {
		return config.TokenInfo{}, fmt.Errorf("unknown token symbol: %s", symbol)
	}

	if err := config.ValidateMint(token.Address); err != nil {
		return config.TokenInfo{}, fmt.Errorf("catalog mint for %s is invalid: %w", symbol, err)
	}

	return config.TokenInfo{
		Symbol:       token.Symbol,
		Mint:         token.Address,
		Decimals:     token.Decimals,
		IsStablecoin: isStablecoin(token),
	}, nil
}
