package screener

import (
	"math"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

// PEAD qualifies symbols whose newest quarterly earnings beat the estimate
// by at least MinSurprise, riding post-earnings announcement drift.
type PEAD struct {
	MinSurprise float64
}

// NewPEAD returns the screen with the 3% surprise floor.
func NewPEAD() PEAD { return PEAD{MinSurprise: 0.03} }

// Name implements Screen.
func (PEAD) Name() string { return "pead" }

func (PEAD) Needs() Needs { return Needs{Bundle: true} }

// Evaluate implements Screen.
func (p PEAD) Evaluate(in Inputs) (float64, map[string]interface{}, bool) {
	if in.Bundle == nil {
		return 0, nil, false
	}
	latest, ok := in.Bundle.QuarterlyEarnings.Last()
	if !ok {
		return 0, nil, false
	}

	s := earningsSurprise(latest)
	if s < p.MinSurprise {
		return 0, nil, false
	}

	details := map[string]interface{}{
		"eps_surprise": s,
		"period_end":   latest.PeriodEnd.Format("2006-01-02"),
	}
	return s, details, true
}

// earningsSurprise is (reported − estimated) / |estimated|. A missing or
// zero estimate yields zero, never a blow-up.
func earningsSurprise(rec fundamentals.PeriodRecord) float64 {
	actual := rec.Value(fundamentals.FieldReportedEPS)
	est := rec.Value(fundamentals.FieldEstimatedEPS)
	if actual == nil || est == nil || *est == 0 {
		return 0
	}
	return (*actual - *est) / math.Abs(*est)
}
