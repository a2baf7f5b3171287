package fundamentals

import "time"

// PeriodRecord is one fiscal period of one statement, keyed by canonical
// field name. A missing key and an explicit null are the same thing to
// consumers: use Value and treat nil as unknown.
type PeriodRecord struct {
	PeriodEnd time.Time           `json:"period_end"`
	Values    map[string]*float64 `json:"values"`
}

// Value returns the canonical field or nil when absent/null.
func (r PeriodRecord) Value(field string) *float64 {
	if r.Values == nil {
		return nil
	}
	return r.Values[field]
}

// ValueOr returns the field coerced to a plain float, def when null.
func (r PeriodRecord) ValueOr(field string, def float64) float64 {
	if v := r.Value(field); v != nil {
		return *v
	}
	return def
}

// Series holds the normalized periods of one statement kind, sorted by
// period end ascending. The newest period is the last element.
type Series struct {
	Kind    StatementKind  `json:"kind"`
	Periods []PeriodRecord `json:"periods"`
}

// Empty reports whether the series has no periods.
func (s Series) Empty() bool { return len(s.Periods) == 0 }

// Len returns the period count.
func (s Series) Len() int { return len(s.Periods) }

// Last returns the newest period and false when the series is empty.
func (s Series) Last() (PeriodRecord, bool) {
	if len(s.Periods) == 0 {
		return PeriodRecord{}, false
	}
	return s.Periods[len(s.Periods)-1], true
}

// Prev returns the second newest period and false when fewer than two exist.
func (s Series) Prev() (PeriodRecord, bool) {
	if len(s.Periods) < 2 {
		return PeriodRecord{}, false
	}
	return s.Periods[len(s.Periods)-2], true
}

// LastN returns up to n of the newest periods, still ascending.
func (s Series) LastN(n int) []PeriodRecord {
	if n <= 0 || len(s.Periods) == 0 {
		return nil
	}
	if n > len(s.Periods) {
		n = len(s.Periods)
	}
	return s.Periods[len(s.Periods)-n:]
}

// ValuesOf collects one canonical field across all periods, ascending,
// nulls included so positional alignment with Periods holds.
func (s Series) ValuesOf(field string) []*float64 {
	out := make([]*float64, len(s.Periods))
	for i, p := range s.Periods {
		out[i] = p.Value(field)
	}
	return out
}

// CompanyProfile is the normalized OVERVIEW record. Numeric fields are
// nullable; categorical fields default to "".
type CompanyProfile struct {
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
}

// Bundle carries everything the engines need for one symbol.
type Bundle struct {
	Symbol            string         `json:"symbol"`
	Overview          CompanyProfile `json:"overview"`
	Income            Series         `json:"income"`
	Balance           Series         `json:"balance"`
	CashFlow          Series         `json:"cashflow"`
	Earnings          Series         `json:"earnings"`
	QuarterlyEarnings Series         `json:"quarterly_earnings"`
}

// Empty reports whether nothing usable came back for the symbol.
func (b *Bundle) Empty() bool {
	if b == nil {
		return true
	}
	return b.Overview.Symbol == "" && b.Overview.Name == "" &&
		b.Income.Empty() && b.Balance.Empty() && b.CashFlow.Empty() && b.Earnings.Empty()
}
