package screener

// NearHigh scores proximity to the trailing high of the adjusted close.
// The score grows hyperbolically as the price closes the gap, capped by
// the 1e-6 floor on the distance.
type NearHigh struct {
	Lookback int
}

// NewNearHigh returns the screen with the 252-session lookback.
func NewNearHigh() NearHigh { return NearHigh{Lookback: 252} }

// Name implements Screen.
func (NearHigh) Name() string { return "near-high" }

func (NearHigh) Needs() Needs { return Needs{Bars: true} }

// Evaluate implements Screen.
func (n NearHigh) Evaluate(in Inputs) (float64, map[string]interface{}, bool) {
	lookback := n.Lookback
	if lookback <= 0 {
		lookback = 252
	}

	bars := in.Bars
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	s := adjCloses(bars)
	if len(s) == 0 {
		return 0, nil, false
	}

	cur := s[len(s)-1]
	high := s[0]
	for _, v := range s[1:] {
		if v > high {
			high = v
		}
	}
	if high <= 0 {
		return 0, nil, false
	}

	proximity := cur / high
	gap := 1.0 - proximity
	if gap < 1e-6 {
		gap = 1e-6
	}

	return 1.0 / gap, map[string]interface{}{"proximity": proximity}, true
}
