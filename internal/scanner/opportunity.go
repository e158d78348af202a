package scanner

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/amount"
)

// Hop is one leg of an evaluated cycle.
type Hop struct {
	InputSymbol    string   `json:"input_symbol"`
	OutputSymbol   string   `json:"output_symbol"`
	InputMint      string   `json:"input_mint"`
	OutputMint     string   `json:"output_mint"`
	InAmount       *big.Int `json:"-"`
	OutAmount      *big.Int `json:"-"`
	PriceImpactPct float64  `json:"price_impact_pct"`
	RouteLabels    []string `json:"route_labels"`
}

// Opportunity is the evaluated result of a triangular cycle. Amounts
// are base units of the cycle's first token; UI conversion happens only
// in the formatting helpers.
type Opportunity struct {
	OpportunityID string `json:"opportunity_id"`
	Timestamp     int64  `json:"timestamp"`

	Cycle       string `json:"cycle"`
	StartSymbol string `json:"start_symbol"`

	// StartDecimals drives UI-amount formatting of the base-unit fields.
	StartDecimals int `json:"start_decimals"`

	Hops []Hop `json:"hops"`

	StartAmount *big.Int `json:"-"`
	FinalAmount *big.Int `json:"-"`
	NetAmount   *big.Int `json:"-"`
	FeeUnits    uint64   `json:"fee_units"`

	ProfitPct           float64 `json:"profit_pct"`
	TotalPriceImpactPct float64 `json:"total_price_impact_pct"`
	EstimatedSlippage   float64 `json:"estimated_slippage"`
	Confidence          float64 `json:"confidence"`

	RouteLabels []string `json:"route_labels"`
	Profitable  bool     `json:"profitable"`
}

// NewOpportunity creates an opportunity shell for a cycle.
func NewOpportunity(cycle Cycle) *Opportunity {
	return &Opportunity{
		OpportunityID: fmt.Sprintf("%s-%d", cycle.Key(), time.Now().UnixNano()),
		Timestamp:     time.Now().Unix(),
		Cycle:         cycle.Path(),
		StartSymbol:   cycle.Tokens[0].Symbol,
		StartDecimals: cycle.Tokens[0].Decimals,
		Hops:          make([]Hop, 0, 3),
		RouteLabels:   make([]string, 0, 4),
	}
}

// IsProfitable reports whether the opportunity passed all acceptance
// thresholds.
func (o *Opportunity) IsProfitable() bool {
	return o.Profitable
}

// FormatOutput formats the opportunity for console output
func (o *Opportunity) FormatOutput() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("═══════════════════════════════════════════════════════════════\n")
	sb.WriteString("        TRIANGULAR ARBITRAGE OPPORTUNITY DETECTED\n")
	sb.WriteString("═══════════════════════════════════════════════════════════════\n")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Opportunity ID:  %s\n", o.OpportunityID))
	sb.WriteString(fmt.Sprintf("Timestamp:       %s\n", time.Unix(o.Timestamp, 0).Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Cycle:           %s\n", o.Cycle))
	sb.WriteString("\n")

	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString("HOPS\n")
	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	for i, hop := range o.Hops {
		sb.WriteString(fmt.Sprintf("%d. %s → %s  in=%s out=%s  impact=%.4f%%  via %s\n",
			i+1,
			hop.InputSymbol,
			hop.OutputSymbol,
			formatBigInt(hop.InAmount),
			formatBigInt(hop.OutAmount),
			hop.PriceImpactPct,
			strings.Join(hop.RouteLabels, ", "),
		))
	}
	sb.WriteString("\n")

	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString("PROFIT ANALYSIS\n")
	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Start Amount:    %s %s (%s base units)\n",
		amount.FormatUI(o.StartAmount, o.StartDecimals, 4),
		o.StartSymbol,
		formatBigInt(o.StartAmount)))
	sb.WriteString(fmt.Sprintf("Final Amount:    %s %s (%s base units)\n",
		amount.FormatUI(o.FinalAmount, o.StartDecimals, 4),
		o.StartSymbol,
		formatBigInt(o.FinalAmount)))
	sb.WriteString(fmt.Sprintf("Network Fee:     %d base units\n", o.FeeUnits))
	sb.WriteString(fmt.Sprintf("Net Amount:      %s %s (%s base units)\n",
		amount.FormatUI(o.NetAmount, o.StartDecimals, 4),
		o.StartSymbol,
		formatBigInt(o.NetAmount)))
	sb.WriteString(fmt.Sprintf("Net Profit:      %.4f%%\n", o.ProfitPct))
	sb.WriteString("\n")

	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString("RISK\n")
	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Total Impact:    %.4f%%\n", o.TotalPriceImpactPct))
	sb.WriteString(fmt.Sprintf("Est. Slippage:   %.6f\n", o.EstimatedSlippage))
	sb.WriteString(fmt.Sprintf("Confidence:      %.2f\n", o.Confidence))
	sb.WriteString(fmt.Sprintf("Routes:          %s\n", strings.Join(o.RouteLabels, ", ")))
	sb.WriteString("\n")
	sb.WriteString("═══════════════════════════════════════════════════════════════\n")

	return sb.String()
}

// ToJSON converts the opportunity to JSON with base-unit amounts as
// strings.
func (o *Opportunity) ToJSON() ([]byte, error) {
	return json.Marshal(o.ToSerializable())
}

func formatBigInt(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// SerializableHop is the wire form of a hop.
type SerializableHop struct {
	InputSymbol    string   `json:"input_symbol"`
	OutputSymbol   string   `json:"output_symbol"`
	InputMint      string   `json:"input_mint"`
	OutputMint     string   `json:"output_mint"`
	InAmount       string   `json:"in_amount"`
	OutAmount      string   `json:"out_amount"`
	PriceImpactPct float64  `json:"price_impact_pct"`
	RouteLabels    []string `json:"route_labels"`
}

// SerializableOpportunity is a JSON-serializable version of Opportunity
// used for SNS messaging. Big integers travel as decimal strings.
type SerializableOpportunity struct {
	OpportunityID       string            `json:"opportunity_id"`
	Timestamp           int64             `json:"timestamp"`
	Cycle               string            `json:"cycle"`
	StartSymbol         string            `json:"start_symbol"`
	StartDecimals       int               `json:"start_decimals"`
	Hops                []SerializableHop `json:"hops"`
	StartAmount         string            `json:"start_amount"`
	FinalAmount         string            `json:"final_amount"`
	NetAmount           string            `json:"net_amount"`
	FeeUnits            uint64            `json:"fee_units"`
	ProfitPct           float64           `json:"profit_pct"`
	TotalPriceImpactPct float64           `json:"total_price_impact_pct"`
	EstimatedSlippage   float64           `json:"estimated_slippage"`
	Confidence          float64           `json:"confidence"`
	RouteLabels         []string          `json:"route_labels"`
	Profitable          bool              `json:"profitable"`
}

// ToSerializable converts Opportunity to its wire form.
func (o *Opportunity) ToSerializable() *SerializableOpportunity {
	hops := make([]SerializableHop, 0, len(o.Hops))
	for _, hop := range o.Hops {
		hops = append(hops, SerializableHop{
			InputSymbol:    hop.InputSymbol,
			OutputSymbol:   hop.OutputSymbol,
			InputMint:      hop.InputMint,
			OutputMint:     hop.OutputMint,
			InAmount:       formatBigInt(hop.InAmount),
			OutAmount:      formatBigInt(hop.OutAmount),
			PriceImpactPct: hop.PriceImpactPct,
			RouteLabels:    hop.RouteLabels,
		})
	}

	return &SerializableOpportunity{
		OpportunityID:       o.OpportunityID,
		Timestamp:           o.Timestamp,
		Cycle:               o.Cycle,
		StartSymbol:         o.StartSymbol,
		StartDecimals:       o.StartDecimals,
		Hops:                hops,
		StartAmount:         formatBigInt(o.StartAmount),
		FinalAmount:         formatBigInt(o.FinalAmount),
		NetAmount:           formatBigInt(o.NetAmount),
		FeeUnits:            o.FeeUnits,
		ProfitPct:           o.ProfitPct,
		TotalPriceImpactPct: o.TotalPriceImpactPct,
		EstimatedSlippage:   o.EstimatedSlippage,
		Confidence:          o.Confidence,
		RouteLabels:         o.RouteLabels,
		Profitable:          o.Profitable,
	}
}

// OpportunitySummary provides a compact summary of the opportunity
type OpportunitySummary struct {
	ID         string  `json:"id"`
	Cycle      string  `json:"cycle"`
	ProfitPct  float64 `json:"profit_pct"`
	Confidence float64 `json:"confidence"`
	Profitable bool    `json:"profitable"`
}

// ToSummary creates a compact summary of the opportunity
func (o *Opportunity) ToSummary() *OpportunitySummary {
	return &OpportunitySummary{
		ID:         o.OpportunityID,
		Cycle:      o.Cycle,
		ProfitPct:  o.ProfitPct,
		Confidence: o.Confidence,
		Profitable: o.Profitable,
	}
}
