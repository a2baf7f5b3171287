package gate

import (
	"fmt"

	"github.com/wonny/intrinsic/internal/fundamentals"
)

// Thresholds are the quality gate bounds. Min fields are inclusive floors,
// Max fields inclusive ceilings.
type Thresholds struct {
	ROICMin             float64 `yaml:"roic_min" json:"roic_min"`
	ROEMin              float64 `yaml:"roe_min" json:"roe_min"`
	FCFMarginMin        float64 `yaml:"fcf_margin_min" json:"fcf_margin_min"`
	NetDebtToEBITDAMax  float64 `yaml:"net_debt_to_ebitda_max" json:"net_debt_to_ebitda_max"`
	InterestCoverageMin float64 `yaml:"interest_coverage_min" json:"interest_coverage_min"`
	PBMax               float64 `yaml:"pb_max" json:"pb_max"`
	PEMax               float64 `yaml:"pe_max" json:"pe_max"`
	MOSUpsideMin        float64 `yaml:"mos_upside_min" json:"mos_upside_min"`
}

// DefaultThresholds returns the baseline quality bar.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ROICMin:             0.12,
		ROEMin:              0.12,
		FCFMarginMin:        0.05,
		NetDebtToEBITDAMax:  2.5,
		InterestCoverageMin: 4.0,
		PBMax:               5.0,
		PEMax:               40.0,
		MOSUpsideMin:        50.0,
	}
}

// Verdict is the outcome of one gate pass. A missing metric skips its
// check rather than failing it, so Evaluated records how much evidence
// the verdict actually rests on.
type Verdict struct {
	Pass      bool     `json:"pass"`
	Reasons   []string `json:"reasons"`
	Evaluated int      `json:"evaluated"`
	Passed    int      `json:"passed"`
}

// Quality runs the quality checks in a fixed order: ROIC, ROE, FCF margin,
// leverage, interest coverage, PE, PB. Reasons list every failed check.
func Quality(snap fundamentals.Snapshot, th Thresholds) Verdict {
	v := Verdict{Pass: true}

	check := func(cond bool, reason string) {
		v.Evaluated++
		if cond {
			v.Passed++
			return
		}
		v.Pass = false
		v.Reasons = append(v.Reasons, reason)
	}

	if snap.ROIC != nil {
		check(*snap.ROIC >= th.ROICMin, fmt.Sprintf("ROIC<%.2f", th.ROICMin))
	}
	if snap.ROE != nil {
		check(*snap.ROE >= th.ROEMin, fmt.Sprintf("ROE<%.2f", th.ROEMin))
	}
	if snap.FCFMargin != nil {
		check(*snap.FCFMargin >= th.FCFMarginMin, fmt.Sprintf("FCF margin<%.2f", th.FCFMarginMin))
	}
	// Leverage needs a positive EBITDA to be meaningful.
	if snap.EBITDA != nil && *snap.EBITDA > 0 && snap.NetDebt != nil {
		ratio := *snap.NetDebt / *snap.EBITDA
		check(ratio <= th.NetDebtToEBITDAMax, fmt.Sprintf("NetDebt/EBITDA>%.1f", th.NetDebtToEBITDAMax))
	}
	if snap.InterestCoverage != nil {
		check(*snap.InterestCoverage >= th.InterestCoverageMin, fmt.Sprintf("InterestCoverage<%.1f", th.InterestCoverageMin))
	}
	if snap.PE != nil {
		check(*snap.PE <= th.PEMax, "PE too high")
	}
	if snap.PB != nil {
		check(*snap.PB <= th.PBMax, "PB too high")
	}

	return v
}

// MOS checks the margin-of-safety bar. An unknown upside fails outright:
// no estimate is not the same as a passing one.
func MOS(upsidePct *float64, th Thresholds) Verdict {
	v := Verdict{Evaluated: 1}
	if upsidePct == nil {
		v.Reasons = []string{"No upside estimate"}
		return v
	}
	if *upsidePct >= th.MOSUpsideMin {
		v.Pass = true
		v.Passed = 1
		return v
	}
	v.Reasons = []string{fmt.Sprintf("Upside<%.1f%%", th.MOSUpsideMin)}
	return v
}

// Combined merges the quality and MOS verdicts into the final screen
// verdict, quality reasons first.
func Combined(quality, mos Verdict) Verdict {
	out := Verdict{
		Pass:      quality.Pass && mos.Pass,
		Evaluated: quality.Evaluated + mos.Evaluated,
		Passed:    quality.Passed + mos.Passed,
	}
	out.Reasons = append(out.Reasons, quality.Reasons...)
	out.Reasons = append(out.Reasons, mos.Reasons...)
	return out
}
