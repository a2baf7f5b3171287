package valuation

import (
	"math"
	"testing"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

func fptr(v float64) *float64 { return &v }

// closedFormEV derives the same five-year model through the geometric
// series identity instead of the projection loop.
func closedFormEV(fcf, g, dr, tg float64, years int) float64 {
	r := (1 + g) / (1 + dr)
	pv := fcf * r * (1 - math.Pow(r, float64(years))) / (1 - r)
	fN := fcf * math.Pow(1+g, float64(years))
	terminal := fN * (1 + tg) / (dr - tg)
	return pv + terminal/math.Pow(1+dr, float64(years))
}

func TestRunAgainstClosedForm(t *testing.T) {
	snap := fundamentals.Snapshot{
		FCF:               fptr(100),
		RevenueCAGR3Y:     fptr(0.03),
		SharesOutstanding: fptr(1000),
	}
	p := DefaultParams()

	v := Run(snap, p)
	if !v.Feasible() {
		t.Fatal("valuation infeasible on positive FCF")
	}

	wantEV := closedFormEV(100, 0.03, 0.10, 0.025, 5)
	if rel := math.Abs(*v.FairValueBase-wantEV) / wantEV; rel > 1e-6 {
		t.Errorf("FairValueBase = %.9f, want %.9f (rel err %.2e)", *v.FairValueBase, wantEV, rel)
	}
	if v.FairValuePerShare == nil {
		t.Fatal("FairValuePerShare missing with positive share count")
	}
	wantPS := wantEV / 1000
	if rel := math.Abs(*v.FairValuePerShare-wantPS) / wantPS; rel > 1e-6 {
		t.Errorf("FairValuePerShare = %.9f, want %.9f", *v.FairValuePerShare, wantPS)
	}
}

func TestRunUpsidePaths(t *testing.T) {
	p := DefaultParams()

	t.Run("per share versus price", func(t *testing.T) {
		snap := fundamentals.Snapshot{
			FCF:               fptr(100),
			RevenueCAGR3Y:     fptr(0.03),
			SharesOutstanding: fptr(1000),
			Price:             fptr(1.0),
			MarketCap:         fptr(999999),
		}
		v := Run(snap, p)
		want := (*v.FairValuePerShare/1.0 - 1) * 100
		if v.UpsidePercent == nil || math.Abs(*v.UpsidePercent-want) > 1e-9 {
			t.Errorf("UpsidePercent = %v, want %v via price path", v.UpsidePercent, want)
		}
	})

	t.Run("market cap fallback", func(t *testing.T) {
		snap := fundamentals.Snapshot{
			FCF:           fptr(100),
			RevenueCAGR3Y: fptr(0.03),
			MarketCap:     fptr(2000),
		}
		v := Run(snap, p)
		want := (*v.FairValueBase/2000 - 1) * 100
		if v.UpsidePercent == nil || math.Abs(*v.UpsidePercent-want) > 1e-9 {
			t.Errorf("UpsidePercent = %v, want %v via market cap", v.UpsidePercent, want)
		}
	})

	t.Run("no reference value", func(t *testing.T) {
		snap := fundamentals.Snapshot{FCF: fptr(100)}
		v := Run(snap, p)
		if v.UpsidePercent != nil {
			t.Errorf("UpsidePercent = %v, want nil without price or cap", *v.UpsidePercent)
		}
		if !v.Feasible() {
			t.Error("fair value must still be estimated")
		}
	})
}

func TestRunInfeasible(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name string
		fcf  *float64
	}{
		{"missing fcf", nil},
		{"zero fcf", fptr(0)},
		{"negative fcf", fptr(-50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Run(fundamentals.Snapshot{FCF: tt.fcf, RevenueCAGR3Y: fptr(0.10)}, p)
			if v.Feasible() || v.FairValuePerShare != nil || v.UpsidePercent != nil {
				t.Errorf("want all-nil valuation, got %+v", v)
			}
			// Assumptions stay explainable even when the model cannot run.
			if v.Assumptions.Growth != 0.06 {
				t.Errorf("Assumptions.Growth = %v, want clamped 0.06", v.Assumptions.Growth)
			}
			if v.Assumptions.Years != 5 || v.Assumptions.DiscountRate != 0.10 {
				t.Errorf("assumptions not carried: %+v", v.Assumptions)
			}
		})
	}
}

func TestGrowthClamp(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name string
		cagr *float64
		want float64
	}{
		{"missing uses default", nil, 0.03},
		{"above ceiling", fptr(0.40), 0.06},
		{"below floor", fptr(-0.30), -0.02},
		{"in range", fptr(0.045), 0.045},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Run(fundamentals.Snapshot{FCF: fptr(100), RevenueCAGR3Y: tt.cagr}, p)
			if v.Assumptions.Growth != tt.want {
				t.Errorf("applied growth = %v, want %v", v.Assumptions.Growth, tt.want)
			}
		})
	}
}

func TestDegenerateParams(t *testing.T) {
	snap := fundamentals.Snapshot{FCF: fptr(100)}

	p := DefaultParams()
	p.TerminalGrowth = p.DiscountRate // Gordon term undefined
	if v := Run(snap, p); v.Feasible() {
		t.Error("valuation must be infeasible when dr <= tg")
	}

	p = DefaultParams()
	p.Years = 0
	if v := Run(snap, p); v.Feasible() {
		t.Error("valuation must be infeasible with no horizon")
	}
}
