// Package scanner implements triangular arbitrage cycle generation,
// evaluation, and the continuous scan loop over a configured token
// universe.
package scanner

import (
	"fmt"
	"strings"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/config"
)

// Cycle is an ordered triple of distinct tokens representing the path
// A → B → C → A. Index is the cycle's position in the deterministic
// generation order and stays stable for a given universe.
type Cycle struct {
	Index  int
	Tokens [3]config.TokenInfo
}

// Path renders the cycle as "A → B → C → A".
func (c Cycle) Path() string {
	return fmt.Sprintf("%s → %s → %s → %s",
		c.Tokens[0].Symbol, c.Tokens[1].Symbol, c.Tokens[2].Symbol, c.Tokens[0].Symbol)
}

// Key is a compact identifier for the cycle ("SOL-USDC-USDT").
func (c Cycle) Key() string {
	return strings.Join([]string{c.Tokens[0].Symbol, c.Tokens[1].Symbol, c.Tokens[2].Symbol}, "-")
}

// GenerateCycles produces every ordered triple of distinct tokens from
// the universe, in deterministic nested-loop order over the input
// slice. N tokens yield N×(N−1)×(N−2) cycles; fewer than three tokens
// yield none.
func GenerateCycles(universe []config.TokenInfo) []Cycle {
	n := len(universe)
	if n < 3 {
		return nil
	}

	cycles := make([]Cycle, 0, n*(n-1)*(n-2))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				cycles = append(cycles, Cycle{
					Index:  len(cycles),
					Tokens: [3]config.TokenInfo{universe[i], universe[j], universe[k]},
				})
			}
		}
	}

	return cycles
}
