package valuation

import (
	"math"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

// Params are the DCF-lite knobs. Growth is clamped into
// [GrowthFloor, GrowthCeil] and falls back to DefaultGrowth when the
// revenue trend is unknown. DiscountRate must exceed TerminalGrowth.
type Params struct {
	GrowthFloor    float64 `yaml:"growth_floor" json:"growth_floor"`
	GrowthCeil     float64 `yaml:"growth_ceil" json:"growth_ceil"`
	DefaultGrowth  float64 `yaml:"default_growth" json:"default_growth"`
	DiscountRate   float64 `yaml:"discount_rate" json:"discount_rate"`
	TerminalGrowth float64 `yaml:"terminal_growth" json:"terminal_growth"`
	Years          int     `yaml:"years" json:"years"`
}

// DefaultParams returns the conservative baseline assumptions.
func DefaultParams() Params {
	return Params{
		GrowthFloor:    -0.02,
		GrowthCeil:     0.06,
		DefaultGrowth:  0.03,
		DiscountRate:   0.10,
		TerminalGrowth: 0.025,
		Years:          5,
	}
}

// Assumptions records the values actually applied to one valuation.
type Assumptions struct {
	Growth         float64 `json:"g"`
	DiscountRate   float64 `json:"dr"`
	TerminalGrowth float64 `json:"tg"`
	Years          int     `json:"years"`
}

// Valuation is the DCF-lite result. The value fields stay nil when the
// starting free cash flow is missing or non-positive; Assumptions are
// carried regardless so a skipped valuation is still explainable.
type Valuation struct {
	FairValueBase     *float64    `json:"fv_base"`
	FairValuePerShare *float64    `json:"fv_ps"`
	UpsidePercent     *float64    `json:"upside_pct"`
	Assumptions       Assumptions `json:"assumptions"`
}

// Feasible reports whether the inputs supported a fair value estimate.
func (v Valuation) Feasible() bool { return v.FairValueBase != nil }

// Run values one snapshot: five explicit years of FCF grown at the clamped
// revenue trend, plus a Gordon terminal value, all discounted to present.
// Upside compares fair value per share against price, falling back to the
// vendor market cap when either per-share input is missing.
func Run(snap fundamentals.Snapshot, p Params) Valuation {
	g := clamp(snap.RevenueCAGR3Y, p.GrowthFloor, p.GrowthCeil, p.DefaultGrowth)
	v := Valuation{Assumptions: Assumptions{
		Growth:         g,
		DiscountRate:   p.DiscountRate,
		TerminalGrowth: p.TerminalGrowth,
		Years:          p.Years,
	}}

	if p.Years <= 0 || p.DiscountRate <= p.TerminalGrowth {
		return v
	}
	if snap.FCF == nil || *snap.FCF <= 0 {
		return v
	}

	f := *snap.FCF
	pv := 0.0
	for t := 1; t <= p.Years; t++ {
		f *= 1 + g
		pv += f / math.Pow(1+p.DiscountRate, float64(t))
	}
	terminal := f * (1 + p.TerminalGrowth) / (p.DiscountRate - p.TerminalGrowth)
	pvTerm := terminal / math.Pow(1+p.DiscountRate, float64(p.Years))
	ev := pv + pvTerm
	v.FairValueBase = &ev

	if so := snap.SharesOutstanding; so != nil && *so > 0 {
		ps := ev / *so
		v.FairValuePerShare = &ps
	}

	if v.FairValuePerShare != nil && *v.FairValuePerShare != 0 && snap.Price != nil && *snap.Price > 0 {
		up := (*v.FairValuePerShare / *snap.Price - 1) * 100
		v.UpsidePercent = &up
	} else if snap.MarketCap != nil && *snap.MarketCap > 0 {
		up := (ev / *snap.MarketCap - 1) * 100
		v.UpsidePercent = &up
	}
	return v
}

func clamp(x *float64, lo, hi, def float64) float64 {
	if x == nil {
		return def
	}
	return math.Max(lo, math.Min(hi, *x))
}
