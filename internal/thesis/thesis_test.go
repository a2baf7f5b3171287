package thesis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wonny/intrinsic/internal/fundamentals"
	"github.com/wonny/intrinsic/internal/gate"
	"github.com/wonny/intrinsic/internal/pipeline"
	"github.com/wonny/intrinsic/internal/valuation"
	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/logger"
)

func fp(v float64) *float64 { return &v }

func passingCandidate() pipeline.Candidate {
	return pipeline.Candidate{
		Symbol:  "APEX",
		Sector:  "Defence",
		Outcome: "success",
		Snapshot: fundamentals.Snapshot{
			Symbol:           "APEX",
			Name:             "Apex Dynamics",
			Sector:           "Defence",
			Industry:         "Aerospace",
			PE:               fp(10),
			PB:               fp(2),
			GrossMargin:      fp(0.60),
			OpMargin:         fp(0.40),
			NetMargin:        fp(0.30),
			FCFMargin:        fp(0.40),
			RevenueCAGR3Y:    fp(0.081),
			NetDebt:          fp(0),
			EBITDA:           fp(450),
			InterestCoverage: fp(40),
			ROE:              fp(0.30),
			ROIC:             fp(0.30),
		},
		Valuation: valuation.Valuation{
			FairValueBase:     fp(5584),
			FairValuePerShare: fp(55.84),
			UpsidePercent:     fp(179.2),
			Assumptions: valuation.Assumptions{
				Growth:         0.03,
				DiscountRate:   0.10,
				TerminalGrowth: 0.02,
				Years:          5,
			},
		},
		Quality: gate.Verdict{Pass: true, Evaluated: 7, Passed: 7},
		MOS:     gate.Verdict{Pass: true, Evaluated: 1, Passed: 1},
		Verdict: gate.Verdict{Pass: true, Evaluated: 8, Passed: 8},
	}
}

func mustContain(t *testing.T, memo string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(memo, want) {
			t.Errorf("memo missing %q\n---\n%s", want, memo)
		}
	}
}

func TestRenderPassingMemo(t *testing.T) {
	memo, err := Render(passingCandidate(), gate.DefaultThresholds())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	mustContain(t, memo,
		"# Apex Dynamics (APEX) - Owner's View",
		"**Sector/Industry:** Defence / Aerospace",
		"| ROIC | 30.0% |",
		"| Revenue CAGR (3y) | 8.1% |",
		"| Net debt | 0 |",
		"| Interest coverage | 40.0x |",
		"| PE | 10.0 |",
		"Fair value (DCF-lite, per share): ~55.84.",
		"Implied upside vs. price: **179.2%**.",
		"Assumptions: 3.0% near-term growth, 10.0% discount rate, 2.0% terminal growth over 5 years.",
		"8 of 8 checks passed.",
		"we'd trim or exit",
		"Meets our **≥50% upside** criterion",
	)
	if strings.Contains(memo, "Does **not** meet") {
		t.Error("passing memo carries the failing bottom line")
	}
}

func TestRenderFailingMemoListsReasons(t *testing.T) {
	cand := passingCandidate()
	cand.Snapshot.PE = fp(60)
	cand.Valuation.UpsidePercent = fp(12.0)
	cand.Quality = gate.Verdict{Pass: false, Reasons: []string{"PE too high"}, Evaluated: 7, Passed: 6}
	cand.MOS = gate.Verdict{Pass: false, Reasons: []string{"Upside<50.0%"}, Evaluated: 1, Passed: 0}
	cand.Verdict = gate.Verdict{Pass: false, Reasons: []string{"PE too high", "Upside<50.0%"}, Evaluated: 8, Passed: 6}

	memo, err := Render(cand, gate.DefaultThresholds())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	mustContain(t, memo,
		"6 of 8 checks passed.",
		"- PE too high",
		"- Upside<50.0%",
		"Does **not** meet ≥50% upside",
	)
}

func TestRenderWithoutValuation(t *testing.T) {
	cand := pipeline.Candidate{
		Symbol:  "BARE",
		Outcome: "success",
		Valuation: valuation.Valuation{
			Assumptions: valuation.Assumptions{Growth: 0.03, DiscountRate: 0.10, TerminalGrowth: 0.02, Years: 5},
		},
		Quality: gate.Verdict{Pass: true, Evaluated: 2, Passed: 2},
		MOS:     gate.Verdict{Pass: false, Reasons: []string{"No upside estimate"}, Evaluated: 1},
		Verdict: gate.Verdict{Pass: false, Reasons: []string{"No upside estimate"}, Evaluated: 3, Passed: 2},
	}

	memo, err := Render(cand, gate.DefaultThresholds())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// 이름과 섹터가 없으면 심볼과 N/A로 대체
	mustContain(t, memo,
		"# BARE (BARE) - Owner's View",
		"**Sector/Industry:** N/A / N/A",
		"| ROIC | N/A |",
		"No fair value estimate: starting free cash flow missing or non-positive.",
		"- No upside estimate",
	)
	if strings.Contains(memo, "Implied upside") {
		t.Error("memo renders upside without a fair value")
	}
}

func TestWriterWritesMemoFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.New(&config.Config{Env: "test", LogLevel: "error"}))
	w.now = func() time.Time {
		return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	}

	path, err := w.Write(passingCandidate(), gate.DefaultThresholds())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join(dir, "2026-02-03T04-05-06_Defence_APEX.md")
	if path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(body), "# Apex Dynamics (APEX) - Owner's View") {
		t.Error("memo file missing title")
	}
}

func TestWriterFilenameFoldsSector(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.New(&config.Config{Env: "test", LogLevel: "error"}))
	w.now = func() time.Time {
		return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	}

	cand := passingCandidate()
	cand.Sector = "Health Care"
	if got := w.filename(cand); got != "2026-02-03T04-05-06_Health-Care_APEX.md" {
		t.Errorf("filename = %s", got)
	}

	cand.Sector = ""
	if got := w.filename(cand); got != "2026-02-03T04-05-06_APEX.md" {
		t.Errorf("sectorless filename = %s", got)
	}
}
