package screener

import (
	"math"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

// MagicFormula blends earnings yield against enterprise value with return
// on tangible capital, Greenblatt style, from the newest annual reports.
type MagicFormula struct{}

// Name implements Screen.
func (MagicFormula) Name() string { return "magic-formula" }

func (MagicFormula) Needs() Needs { return Needs{Bundle: true} }

// Evaluate implements Screen.
func (MagicFormula) Evaluate(in Inputs) (float64, map[string]interface{}, bool) {
	if in.Bundle == nil {
		return 0, nil, false
	}
	income, ok := in.Bundle.Income.Last()
	if !ok {
		return 0, nil, false
	}
	balance, ok := in.Bundle.Balance.Last()
	if !ok {
		return 0, nil, false
	}

	ebit := income.ValueOr(fundamentals.FieldOperatingIncome, 0)
	ev := enterpriseValue(in.Bundle.Overview, balance)

	ey := 0.0
	if ev > 0 {
		ey = ebit / ev
	}

	invested := math.Max(balance.ValueOr(fundamentals.FieldTotalAssets, 0)-balance.ValueOr(fundamentals.FieldCurrentLiabilities, 0), 1.0)
	roic := ebit / invested

	score := 0.5*ey + 0.5*roic
	details := map[string]interface{}{"ey": ey, "roic": roic, "ev": ev}
	return score, details, true
}

// enterpriseValue is market cap plus balance-sheet debt net of cash,
// floored at zero. Missing figures count as zero.
func enterpriseValue(profile fundamentals.CompanyProfile, balance fundamentals.PeriodRecord) float64 {
	mktCap := 0.0
	if profile.MarketCap != nil {
		mktCap = *profile.MarketCap
	}
	debt := balance.ValueOr(fundamentals.FieldShortTermDebt, 0) + balance.ValueOr(fundamentals.FieldLongTermDebt, 0)
	cash := balance.ValueOr(fundamentals.FieldCash, 0)
	return math.Max(mktCap+debt-cash, 0.0)
}
