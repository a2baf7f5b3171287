package fundamentals

import "math"

// taxRate approximates the effective tax applied to operating income when
// deriving NOPAT for ROIC.
const taxRate = 0.25

// Snapshot is the flat derived-metric record for one symbol. Every numeric
// field is nullable; a nil means the inputs were missing, never zero.
type Snapshot struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`

	SharesOutstanding *float64 `json:"shares_outstanding"`
	MarketCap         *float64 `json:"market_cap"`
	EBITDA            *float64 `json:"ebitda"`
	PE                *float64 `json:"pe"`
	PS                *float64 `json:"ps"`
	PB                *float64 `json:"pb"`
	DividendYield     *float64 `json:"dividend_yield"`

	RevenueCAGR3Y *float64 `json:"revenue_cagr_3y"`
	EPSCAGR3Y     *float64 `json:"eps_cagr_3y"`

	GrossMargin *float64 `json:"gross_margin"`
	OpMargin    *float64 `json:"op_margin"`
	NetMargin   *float64 `json:"net_margin"`

	FCF       *float64 `json:"fcf"`
	FCFMargin *float64 `json:"fcf_margin"`

	NetDebt          *float64 `json:"net_debt"`
	InterestCoverage *float64 `json:"interest_coverage"`
	ROE              *float64 `json:"roe"`
	ROIC             *float64 `json:"roic"`

	Price                     *float64 `json:"price"`
	ImpliedMarketCapFromPrice *float64 `json:"implied_market_cap_from_price"`
}

// Compute derives quality and growth metrics from one normalized bundle.
// price is the market quote used for the implied-cap field; pass nil when
// no quote source produced one.
func Compute(b *Bundle, price *float64) Snapshot {
	snap := Snapshot{Price: price}
	if b == nil {
		return snap
	}

	ov := b.Overview
	snap.Symbol = ov.Symbol
	snap.Name = ov.Name
	snap.Sector = ov.Sector
	snap.Industry = ov.Industry
	snap.SharesOutstanding = ov.SharesOutstanding
	snap.MarketCap = ov.MarketCap
	snap.EBITDA = ov.EBITDA
	snap.PE = ov.PE
	snap.PS = ov.PS
	snap.PB = ov.PB
	snap.DividendYield = ov.DividendYield

	// Growth over the last four annual periods (three intervals).
	snap.RevenueCAGR3Y = cagrOverLast(b.Income, FieldRevenue, 4)
	snap.EPSCAGR3Y = cagrOverLast(b.Earnings, FieldReportedEPS, 4)

	revenue := lastValue(b.Income, FieldRevenue)
	gross := lastValue(b.Income, FieldGrossProfit)
	opInc := lastValue(b.Income, FieldOperatingIncome)
	netInc := lastValue(b.Income, FieldNetIncome)

	snap.GrossMargin = ratioOf(gross, revenue)
	snap.OpMargin = ratioOf(opInc, revenue)
	snap.NetMargin = ratioOf(netInc, revenue)

	// Capex arrives with vendor-dependent sign, so FCF subtracts its
	// magnitude from operating cash flow.
	ocf := lastValue(b.CashFlow, FieldOperatingCashflow)
	capex := lastValue(b.CashFlow, FieldCapitalExpenditures)
	if ocf != nil && capex != nil {
		fcf := *ocf - math.Abs(*capex)
		snap.FCF = &fcf
	}
	snap.FCFMargin = ratioOf(snap.FCF, revenue)

	totalDebt := lastValue(b.Balance, FieldTotalDebt)
	cash := lastValue(b.Balance, FieldCash)
	if totalDebt != nil && cash != nil {
		nd := *totalDebt - *cash
		snap.NetDebt = &nd
	}

	// Coverage stays defined for zero operating income; only a missing or
	// zero interest expense makes the ratio unknowable.
	interestExp := lastValue(b.Income, FieldInterestExpense)
	if opInc != nil && interestExp != nil && *interestExp != 0 {
		ic := *opInc / math.Abs(*interestExp)
		snap.InterestCoverage = &ic
	}

	equity := lastValue(b.Balance, FieldEquity)
	if netInc != nil && equity != nil && *equity != 0 {
		roe := *netInc / *equity
		snap.ROE = &roe
	}

	if opInc != nil && snap.NetDebt != nil && equity != nil {
		invested := *snap.NetDebt + *equity
		if invested != 0 {
			roic := *opInc * (1 - taxRate) / invested
			snap.ROIC = &roic
		}
	}

	if price != nil && *price != 0 && snap.SharesOutstanding != nil && *snap.SharesOutstanding != 0 {
		implied := *price * *snap.SharesOutstanding
		snap.ImpliedMarketCapFromPrice = &implied
	}

	return snap
}

// lastValue returns one canonical field from the newest period, nil when
// the series is empty or the field is null.
func lastValue(s Series, field string) *float64 {
	last, ok := s.Last()
	if !ok {
		return nil
	}
	return last.Value(field)
}

// ratioOf divides num by den, nil when num is null or den is null or zero.
func ratioOf(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	r := *num / *den
	return &r
}

// cagrOverLast computes the compound annual growth rate of one field over
// up to n of the newest periods.
func cagrOverLast(s Series, field string, n int) *float64 {
	window := s.LastN(n)
	vals := make([]*float64, 0, len(window))
	for _, p := range window {
		vals = append(vals, p.Value(field))
	}
	return cagr(vals)
}

// cagr drops nulls, then needs at least two values and a nonzero start.
// The exponent is 1/(count-1) so four annual values span three intervals.
func cagr(vals []*float64) *float64 {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v != nil {
			xs = append(xs, *v)
		}
	}
	if len(xs) < 2 {
		return nil
	}
	start, end := xs[0], xs[len(xs)-1]
	if start == 0 {
		return nil
	}
	n := float64(len(xs) - 1)
	r := math.Pow(end/start, 1/n) - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}
