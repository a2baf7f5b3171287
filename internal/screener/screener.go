// Package screener ranks candidate symbols with cheap factor screens before
// the full gate evaluation spends vendor quota on them.
// ⭐ SSOT: 팩터 스크리닝 산식은 이 패키지에서만
package screener

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/fundamentals"
)

// Inputs carries one symbol's data a screen can draw on. Every field is
// optional; a screen missing its inputs reports ok=false.
type Inputs struct {
	Bundle *fundamentals.Bundle
	Bars   []alphavantage.Bar
}

// Needs declares which inputs a screen reads, so the caller fetches only
// what Evaluate will actually use.
type Needs struct {
	Bundle bool
	Bars   bool
}

// Screen is one ranking strategy over a symbol's inputs.
type Screen interface {
	Name() string
	Needs() Needs
	Evaluate(in Inputs) (score float64, details map[string]interface{}, ok bool)
}

// Result is one qualifying symbol with its score and diagnostics.
type Result struct {
	Symbol  string                 `json:"symbol"`
	Score   float64                `json:"score"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Rank orders results best first. Stable, so equal scores keep input order.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// ForName returns the screen registered under name.
func ForName(name string) (Screen, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "momentum":
		return Momentum{}, nil
	case "near-high", "nearhigh":
		return NewNearHigh(), nil
	case "pead":
		return NewPEAD(), nil
	case "piotroski":
		return NewPiotroski(), nil
	case "magic-formula", "magicformula":
		return MagicFormula{}, nil
	}
	return nil, fmt.Errorf("unknown screener %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the registered screen names.
func Names() []string {
	return []string{"momentum", "near-high", "pead", "piotroski", "magic-formula"}
}

// adjCloses extracts the non-null adjusted closes, oldest first.
func adjCloses(bars []alphavantage.Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.AdjClose != nil {
			out = append(out, *b.AdjClose)
		}
	}
	return out
}
