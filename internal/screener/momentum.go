package screener

import "math"

// Momentum scores 12-month-minus-1-month price momentum: the trailing
// 12-month return with the newest month stripped out.
type Momentum struct{}

// Name implements Screen.
func (Momentum) Name() string { return "momentum" }

func (Momentum) Needs() Needs { return Needs{Bars: true} }

// Evaluate needs at least 260 adjusted closes (a year of sessions plus
// slack). Degenerate arithmetic (zero anchors) reports ok=false.
func (Momentum) Evaluate(in Inputs) (float64, map[string]interface{}, bool) {
	s := adjCloses(in.Bars)
	if len(s) < 260 {
		return 0, nil, false
	}

	last := s[len(s)-1]
	r12 := last/s[len(s)-252] - 1.0
	r1 := last/s[len(s)-21] - 1.0
	m := r12 - r1
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, nil, false
	}

	return m, map[string]interface{}{"mom_12_1": m}, true
}
