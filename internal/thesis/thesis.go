// Package thesis renders the investment memo for a screened candidate.
// Memos are deterministic markdown built from the evaluation trail; no
// model calls, so a memo can be regenerated byte for byte from a run.
package thesis

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/wonny/intrinsic/internal/gate"
	"github.com/wonny/intrinsic/internal/pipeline"
	"github.com/wonny/intrinsic/pkg/logger"
)

var memoTmpl = template.Must(template.New("memo").Parse(`# {{.Name}} ({{.Symbol}}) - Owner's View

**Sector/Industry:** {{.Sector}} / {{.Industry}}

## Business quality

| Metric | Value |
| --- | --- |
{{range .Rows}}| {{.Label}} | {{.Value}} |
{{end}}
## Valuation & margin of safety

{{if .HasValue}}- Fair value (DCF-lite, per share): ~{{.FairValue}}.
- Implied upside vs. price: **{{.Upside}}**.
{{else}}- No fair value estimate: starting free cash flow missing or non-positive.
{{end}}- Assumptions: {{.Growth}} near-term growth, {{.DiscountRate}} discount rate, {{.TerminalGrowth}} terminal growth over {{.Years}} years.

## Verdict

- {{.GatesPassed}} of {{.GatesEvaluated}} checks passed.
{{range .Reasons}}- {{.}}
{{end}}
## What would make us walk away?

- Erosion of returns on capital, sustained margin compression, leverage drift, or management diluting owners.
- If price rises to fair value without business improvement, we'd trim or exit.

## Bottom line

{{if .MOSPass}}- Meets our **≥{{.Threshold}} upside** criterion with conservative inputs.
{{else}}- Does **not** meet ≥{{.Threshold}} upside with conservative inputs.
{{end}}`))

type row struct {
	Label string
	Value string
}

type memoData struct {
	Name     string
	Symbol   string
	Sector   string
	Industry string
	Rows     []row

	HasValue       bool
	FairValue      string
	Upside         string
	Growth         string
	DiscountRate   string
	TerminalGrowth string
	Years          int

	GatesPassed    int
	GatesEvaluated int
	Reasons        []string

	MOSPass   bool
	Threshold string
}

// Render produces the memo markdown for one evaluated candidate.
func Render(cand pipeline.Candidate, th gate.Thresholds) (string, error) {
	snap := cand.Snapshot
	val := cand.Valuation

	data := memoData{
		Name:     orDefault(snap.Name, cand.Symbol),
		Symbol:   cand.Symbol,
		Sector:   orDefault(snap.Sector, "N/A"),
		Industry: orDefault(snap.Industry, "N/A"),
		Rows: []row{
			{"ROIC", pct(snap.ROIC)},
			{"ROE", pct(snap.ROE)},
			{"Gross margin", pct(snap.GrossMargin)},
			{"Operating margin", pct(snap.OpMargin)},
			{"Net margin", pct(snap.NetMargin)},
			{"FCF margin", pct(snap.FCFMargin)},
			{"Revenue CAGR (3y)", pct(snap.RevenueCAGR3Y)},
			{"EPS CAGR (3y)", pct(snap.EPSCAGR3Y)},
			{"Net debt", num(snap.NetDebt)},
			{"EBITDA", num(snap.EBITDA)},
			{"Interest coverage", times(snap.InterestCoverage)},
			{"PE", ratio(snap.PE)},
			{"PB", ratio(snap.PB)},
		},
		HasValue:       val.Feasible(),
		Growth:         fmt.Sprintf("%.1f%%", val.Assumptions.Growth*100),
		DiscountRate:   fmt.Sprintf("%.1f%%", val.Assumptions.DiscountRate*100),
		TerminalGrowth: fmt.Sprintf("%.1f%%", val.Assumptions.TerminalGrowth*100),
		Years:          val.Assumptions.Years,
		GatesPassed:    cand.Verdict.Passed,
		GatesEvaluated: cand.Verdict.Evaluated,
		Reasons:        cand.Verdict.Reasons,
		MOSPass:        cand.MOS.Pass,
		Threshold:      fmt.Sprintf("%.0f%%", th.MOSUpsideMin),
	}
	if val.FairValuePerShare != nil {
		data.FairValue = fmt.Sprintf("%.2f", *val.FairValuePerShare)
	} else if val.FairValueBase != nil {
		data.FairValue = fmt.Sprintf("%.0f (whole company)", *val.FairValueBase)
	}
	if val.UpsidePercent != nil {
		data.Upside = fmt.Sprintf("%.1f%%", *val.UpsidePercent)
	} else {
		data.Upside = "N/A"
	}

	var buf bytes.Buffer
	if err := memoTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Writer lands memos in one directory, named after the run time, sector
// and symbol so repeated runs never clobber each other.
type Writer struct {
	dir    string
	now    func() time.Time
	logger *logger.Logger
}

// NewWriter returns a memo writer rooted at dir.
func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{dir: dir, now: time.Now, logger: log}
}

// Write renders and stores the memo for one candidate, returning the path.
func (w *Writer) Write(cand pipeline.Candidate, th gate.Thresholds) (string, error) {
	memo, err := Render(cand, th)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create memo dir: %w", err)
	}

	path := filepath.Join(w.dir, w.filename(cand))
	if err := os.WriteFile(path, []byte(memo), 0o644); err != nil {
		return "", fmt.Errorf("write memo: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"symbol": cand.Symbol,
		"path":   path,
	}).Info("Thesis memo written")
	return path, nil
}

func (w *Writer) filename(cand pipeline.Candidate) string {
	ts := w.now().UTC().Format("2006-01-02T15-04-05")
	if cand.Sector == "" {
		return fmt.Sprintf("%s_%s.md", ts, cand.Symbol)
	}
	return fmt.Sprintf("%s_%s_%s.md", ts, pathSafe(cand.Sector), cand.Symbol)
}

func pathSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func pct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func num(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", *v)
}

func times(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1fx", *v)
}

func ratio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}
