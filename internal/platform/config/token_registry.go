package config

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// TokenInfo contains token metadata for the scan universe
type TokenInfo struct {
	Symbol       string // Token symbol (SOL, USDC, BONK, etc.)
	Mint         string // Solana mint address (base58)
	Decimals     int    // Token decimals (9 for SOL, 6 for USDC)
	IsStablecoin bool   // Whether this is a stablecoin
}

// TokenRegistry maps token symbols to their on-chain information.
// Hardcoded registry of well-known mints on Solana mainnet; anything
// not listed here is resolved through the Jupiter token catalog.
var TokenRegistry = map[string]TokenInfo{
	"SOL": {
		Symbol:       "SOL",
		Mint:         "So11111111111111111111111111111111111111112", // wrapped SOL
		Decimals:     9,
		IsStablecoin: false,
	},
	"USDC": {
		Symbol:       "USDC",
		Mint:         "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:     6,
		IsStablecoin: true,
	},
	"USDT": {
		Symbol:       "USDT",
		Mint:         "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		Decimals:     6,
		IsStablecoin: true,
	},
	"JUP": {
		Symbol:       "JUP",
		Mint:         "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
		Decimals:     6,
		IsStablecoin: false,
	},
	"BONK": {
		Symbol:       "BONK",
		Mint:         "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		Decimals:     5,
		IsStablecoin: false,
	},
	"RAY": {
		Symbol:       "RAY",
		Mint:         "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
		Decimals:     6,
		IsStablecoin: false,
	},
	"WIF": {
		Symbol:       "WIF",
		Mint:         "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
		Decimals:     6,
		IsStablecoin: false,
	},
	"MSOL": {
		Symbol:       "MSOL",
		Mint:         "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",
		Decimals:     9,
		IsStablecoin: false,
	},
}

// LookupToken resolves a symbol against the registry
func LookupToken(symbol string) (TokenInfo, error) {
	info, ok := TokenRegistry[symbol]
	if !ok {
		return TokenInfo{}, fmt.Errorf("unknown token symbol: %s", symbol)
	}
	return info, nil
}

// ValidateMint checks that a string is a well-formed Solana mint address
func ValidateMint(mint string) error {
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	return nil
}

// ResolveUniverse resolves a list of symbols into token infos,
// rejecting duplicates so the cycle set stays well-defined.
func ResolveUniverse(symbols []string) ([]TokenInfo, error) {
	seen := make(map[string]bool, len(symbols))
	tokens := make([]TokenInfo, 0, len(symbols))

	for _, symbol := range symbols {
		if seen[symbol] {
			return nil, fmt.Errorf("duplicate token symbol: %s", symbol)
		}
		seen[symbol] = true

		info, err := LookupToken(symbol)
		if err != nil {
			return nil, err
		}
		if err := ValidateMint(info.Mint); err != nil {
			return nil, err
		}
		tokens = append(tokens, info)
	}

	return tokens, nil
}
