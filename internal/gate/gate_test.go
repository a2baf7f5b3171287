package gate

import (
	"reflect"
	"testing"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

func fptr(v float64) *float64 { return &v }

func TestQualitySkipsMissingMetrics(t *testing.T) {
	// Only ROIC and ROE are known; the verdict rests on those two alone.
	snap := fundamentals.Snapshot{
		ROIC: fptr(0.15),
		ROE:  fptr(0.10),
	}
	v := Quality(snap, DefaultThresholds())

	if v.Pass {
		t.Error("verdict must fail on weak ROE")
	}
	if v.Evaluated != 2 || v.Passed != 1 {
		t.Errorf("evaluated=%d passed=%d, want 2/1", v.Evaluated, v.Passed)
	}
	if want := []string{"ROE<0.12"}; !reflect.DeepEqual(v.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", v.Reasons, want)
	}
}

func TestQualityVacuousPass(t *testing.T) {
	v := Quality(fundamentals.Snapshot{}, DefaultThresholds())
	if !v.Pass {
		t.Error("no evidence means no failure")
	}
	if v.Evaluated != 0 || v.Passed != 0 || len(v.Reasons) != 0 {
		t.Errorf("verdict = %+v, want empty", v)
	}
}

func TestQualityBoundaries(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		snap fundamentals.Snapshot
		pass bool
	}{
		{"roic at floor", fundamentals.Snapshot{ROIC: fptr(0.12)}, true},
		{"roic below floor", fundamentals.Snapshot{ROIC: fptr(0.1199)}, false},
		{"pe at ceiling", fundamentals.Snapshot{PE: fptr(40.0)}, true},
		{"pe above ceiling", fundamentals.Snapshot{PE: fptr(40.01)}, false},
		{"pb at ceiling", fundamentals.Snapshot{PB: fptr(5.0)}, true},
		{"leverage at ceiling", fundamentals.Snapshot{EBITDA: fptr(100), NetDebt: fptr(250)}, true},
		{"leverage above ceiling", fundamentals.Snapshot{EBITDA: fptr(100), NetDebt: fptr(251)}, false},
		{"negative net debt passes", fundamentals.Snapshot{EBITDA: fptr(100), NetDebt: fptr(-50)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := Quality(tt.snap, th); v.Pass != tt.pass {
				t.Errorf("Pass = %v, want %v (reasons %v)", v.Pass, tt.pass, v.Reasons)
			}
		})
	}
}

func TestQualityLeverageNeedsPositiveEBITDA(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		snap fundamentals.Snapshot
	}{
		{"zero ebitda", fundamentals.Snapshot{EBITDA: fptr(0), NetDebt: fptr(9e9)}},
		{"negative ebitda", fundamentals.Snapshot{EBITDA: fptr(-100), NetDebt: fptr(9e9)}},
		{"missing net debt", fundamentals.Snapshot{EBITDA: fptr(100)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Quality(tt.snap, th)
			if !v.Pass || v.Evaluated != 0 {
				t.Errorf("leverage check must be skipped, got %+v", v)
			}
		})
	}
}

func TestQualityReasonOrder(t *testing.T) {
	// Everything fails; reasons come out in the fixed evaluation order.
	snap := fundamentals.Snapshot{
		ROIC:             fptr(0.01),
		ROE:              fptr(0.01),
		FCFMargin:        fptr(0.01),
		EBITDA:           fptr(100),
		NetDebt:          fptr(1000),
		InterestCoverage: fptr(1.0),
		PE:               fptr(90),
		PB:               fptr(12),
	}
	v := Quality(snap, DefaultThresholds())

	want := []string{
		"ROIC<0.12",
		"ROE<0.12",
		"FCF margin<0.05",
		"NetDebt/EBITDA>2.5",
		"InterestCoverage<4.0",
		"PE too high",
		"PB too high",
	}
	if !reflect.DeepEqual(v.Reasons, want) {
		t.Errorf("Reasons = %v\nwant      %v", v.Reasons, want)
	}
	if v.Evaluated != 7 || v.Passed != 0 {
		t.Errorf("evaluated=%d passed=%d, want 7/0", v.Evaluated, v.Passed)
	}
}

func TestMOS(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name    string
		upside  *float64
		pass    bool
		reasons []string
	}{
		{"missing estimate", nil, false, []string{"No upside estimate"}},
		{"below bar", fptr(49.9), false, []string{"Upside<50.0%"}},
		{"at bar", fptr(50.0), true, nil},
		{"above bar", fptr(120.0), true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := MOS(tt.upside, th)
			if v.Pass != tt.pass {
				t.Errorf("Pass = %v, want %v", v.Pass, tt.pass)
			}
			if !reflect.DeepEqual(v.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", v.Reasons, tt.reasons)
			}
		})
	}
}

func TestCombined(t *testing.T) {
	q := Verdict{Pass: false, Reasons: []string{"ROE<0.12"}, Evaluated: 3, Passed: 2}
	m := Verdict{Pass: false, Reasons: []string{"Upside<50.0%"}, Evaluated: 1, Passed: 0}

	c := Combined(q, m)
	if c.Pass {
		t.Error("combined verdict must fail when either side fails")
	}
	if want := []string{"ROE<0.12", "Upside<50.0%"}; !reflect.DeepEqual(c.Reasons, want) {
		t.Errorf("Reasons = %v, want quality reasons first", c.Reasons)
	}
	if c.Evaluated != 4 || c.Passed != 2 {
		t.Errorf("evaluated=%d passed=%d, want 4/2", c.Evaluated, c.Passed)
	}

	both := Combined(Verdict{Pass: true, Evaluated: 7, Passed: 7}, Verdict{Pass: true, Evaluated: 1, Passed: 1})
	if !both.Pass || both.Evaluated != 8 {
		t.Errorf("combined pass = %+v", both)
	}
}
