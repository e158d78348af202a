package scanner

import (
	"testing"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/config"
)

func universeOf(t *testing.T, symbols ...string) []config.TokenInfo {
	t.Helper()
	universe := make([]config.TokenInfo, 0, len(symbols))
	for _, symbol := range symbols {
		token, err := config.LookupToken(symbol)
		if err != nil {
			t.Fatalf("unknown registry token %s: %v", symbol, err)
		}
		universe = append(universe, token)
	}
	return universe
}

func TestGenerateCycles_Counts(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		want    int
	}{
		{"empty", nil, 0},
		{"one token", []string{"SOL"}, 0},
		{"two tokens", []string{"SOL", "USDC"}, 0},
		{"three tokens", []string{"SOL", "USDC", "USDT"}, 6},
		{"four tokens", []string{"SOL", "USDC", "USDT", "JUP"}, 24},
		{"five tokens", []string{"SOL", "USDC", "USDT", "JUP", "BONK"}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycles := GenerateCycles(universeOf(t, tt.symbols...))
			if len(cycles) != tt.want {
				t.Errorf("got %d cycles, want %d", len(cycles), tt.want)
			}
		})
	}

	t.Log("✓ Cycle count is N·(N−1)·(N−2)")
}

func TestGenerateCycles_Deterministic(t *testing.T) {
	universe := universeOf(t, "SOL", "USDC", "USDT", "JUP")

	first := GenerateCycles(universe)
	second := GenerateCycles(universe)

	if len(first) != len(second) {
		t.Fatalf("cycle counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key() != second[i].Key() {
			t.Errorf("cycle %d differs: %s vs %s", i, first[i].Key(), second[i].Key())
		}
		if first[i].Index != i {
			t.Errorf("cycle %d has index %d", i, first[i].Index)
		}
	}

	t.Log("✓ Same universe yields the same ordered cycle set")
}

func TestGenerateCycles_FirstCycleFollowsInputOrder(t *testing.T) {
	cycles := GenerateCycles(universeOf(t, "SOL", "USDC", "USDT"))

	if cycles[0].Key() != "SOL-USDC-USDT" {
		t.Errorf("first cycle = %s, want SOL-USDC-USDT", cycles[0].Key())
	}
	if cycles[0].Path() != "SOL → USDC → USDT → SOL" {
		t.Errorf("path = %q", cycles[0].Path())
	}
}

func TestGenerateCycles_NoRepeatedTokenWithinCycle(t *testing.T) {
	cycles := GenerateCycles(universeOf(t, "SOL", "USDC", "USDT", "JUP"))

	for _, cycle := range cycles {
		a, b, c := cycle.Tokens[0].Symbol, cycle.Tokens[1].Symbol, cycle.Tokens[2].Symbol
		if a == b || b == c || a == c {
			t.Errorf("cycle %s repeats a token", cycle.Key())
		}
	}
}
