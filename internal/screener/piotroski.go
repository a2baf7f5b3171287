package screener

import (
	"math"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

// Piotroski screens on the 9-check F-score over the two newest annual
// reports. Only symbols at or above MinScore qualify.
type Piotroski struct {
	MinScore int
}

// NewPiotroski returns the screen with the classic 7-of-9 floor.
func NewPiotroski() Piotroski { return Piotroski{MinScore: 7} }

// Name implements Screen.
func (Piotroski) Name() string { return "piotroski" }

func (Piotroski) Needs() Needs { return Needs{Bundle: true} }

// Evaluate implements Screen.
func (p Piotroski) Evaluate(in Inputs) (float64, map[string]interface{}, bool) {
	if in.Bundle == nil {
		return 0, nil, false
	}
	f, ok := FScore(in.Bundle)
	if !ok || f < p.MinScore {
		return 0, nil, false
	}
	return float64(f), map[string]interface{}{"fscore": f}, true
}

// FScore computes the Piotroski F-score (0..9). ok is false when any of the
// three statements lacks two annual periods. Missing figures count as zero.
func FScore(b *fundamentals.Bundle) (int, bool) {
	if b.Income.Len() < 2 || b.Balance.Len() < 2 || b.CashFlow.Len() < 2 {
		return 0, false
	}
	curIS, _ := b.Income.Last()
	prevIS, _ := b.Income.Prev()
	curBS, _ := b.Balance.Last()
	prevBS, _ := b.Balance.Prev()
	curCF, _ := b.CashFlow.Last()

	score := 0

	// Profitability
	roaCur := curIS.ValueOr(fundamentals.FieldNetIncome, 0) / math.Max(curBS.ValueOr(fundamentals.FieldTotalAssets, 0), 1.0)
	roaPrev := prevIS.ValueOr(fundamentals.FieldNetIncome, 0) / math.Max(prevBS.ValueOr(fundamentals.FieldTotalAssets, 0), 1.0)
	if roaCur > 0 {
		score++
	}
	if roaCur > roaPrev {
		score++
	}
	ocf := curCF.ValueOr(fundamentals.FieldOperatingCashflow, 0)
	if ocf > 0 {
		score++
	}
	if curIS.ValueOr(fundamentals.FieldNetIncome, 0) < ocf {
		score++
	}

	// Leverage and liquidity
	if curBS.ValueOr(fundamentals.FieldLongTermDebt, 0) <= prevBS.ValueOr(fundamentals.FieldLongTermDebt, 0) {
		score++
	}
	curRatioCur := curBS.ValueOr(fundamentals.FieldCurrentAssets, 0) / math.Max(curBS.ValueOr(fundamentals.FieldCurrentLiabilities, 0), 1.0)
	curRatioPrev := prevBS.ValueOr(fundamentals.FieldCurrentAssets, 0) / math.Max(prevBS.ValueOr(fundamentals.FieldCurrentLiabilities, 0), 1.0)
	if curRatioCur > curRatioPrev {
		score++
	}
	if curIS.ValueOr(fundamentals.FieldSharesOutstanding, 0) <= prevIS.ValueOr(fundamentals.FieldSharesOutstanding, 0) {
		score++
	}

	// Efficiency
	revCur := math.Max(curIS.ValueOr(fundamentals.FieldRevenue, 0), 1.0)
	revPrev := math.Max(prevIS.ValueOr(fundamentals.FieldRevenue, 0), 1.0)
	if grossMarginProxy(curIS)/revCur > grossMarginProxy(prevIS)/revPrev {
		score++
	}
	assetsCur := math.Max(curBS.ValueOr(fundamentals.FieldTotalAssets, 0), 1.0)
	assetsPrev := math.Max(prevBS.ValueOr(fundamentals.FieldTotalAssets, 0), 1.0)
	if curIS.ValueOr(fundamentals.FieldRevenue, 0)/assetsCur > prevIS.ValueOr(fundamentals.FieldRevenue, 0)/assetsPrev {
		score++
	}

	return score, true
}

// grossMarginProxy is gross profit less cost of revenue when the cost line
// is reported, plain gross profit otherwise.
func grossMarginProxy(rec fundamentals.PeriodRecord) float64 {
	gm := rec.ValueOr(fundamentals.FieldGrossProfit, 0)
	if c := rec.Value(fundamentals.FieldCostOfRevenue); c != nil {
		gm -= *c
	}
	return gm
}
