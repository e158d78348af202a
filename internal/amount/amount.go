// Package amount converts between base-unit token amounts and
// human-readable UI amounts. All hop chaining happens in base units;
// UI conversion is a boundary operation for display and reporting.
package amount

import (
	"fmt"
	"math/big"
)

// pow10 returns 10^decimals as *big.Int.
func pow10(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// ToUI converts base units to a UI amount using the token's decimals.
// Boundary function: the result is for display, never for chaining.
func ToUI(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	f := new(big.Float).SetInt(raw)
	f.Quo(f, new(big.Float).SetInt(pow10(decimals)))
	out, _ := f.Float64()
	return out
}

// FromUI converts a UI amount to base units, truncating sub-unit dust.
func FromUI(ui float64, decimals int) *big.Int {
	f := big.NewFloat(ui)
	f.Mul(f, new(big.Float).SetInt(pow10(decimals)))
	out, _ := f.Int(nil)
	return out
}

// FormatUI renders base units as a fixed-precision UI string.
func FormatUI(raw *big.Int, decimals, precision int) string {
	return fmt.Sprintf("%.*f", precision, ToUI(raw, decimals))
}

// PercentChange returns ((to - from) / from) * 100.
// Returns 0 when from is zero or nil.
func PercentChange(from, to *big.Int) float64 {
	if from == nil || to == nil || from.Sign() == 0 {
		return 0
	}

	diff := new(big.Int).Sub(to, from)
	f := new(big.Float).SetInt(diff)
	f.Quo(f, new(big.Float).SetInt(from))
	f.Mul(f, big.NewFloat(100))

	out, _ := f.Float64()
	return out
}
