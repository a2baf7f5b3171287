package strategyconfig

import (
	"fmt"
	"strings"

	"github.com/wonny/intrinsic/internal/screener"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Sectors) == 0 {
		return ValidationError{"universe.sectors", "required"}
	}
	for i, sector := range cfg.Universe.Sectors {
		if strings.TrimSpace(sector) == "" {
			return ValidationError{fmt.Sprintf("universe.sectors[%d]", i), "must not be blank"}
		}
	}
	if cfg.Universe.NamesPerSector < 1 {
		return ValidationError{"universe.names_per_sector", "must be >= 1"}
	}
	if cfg.Universe.PoolCap < 0 {
		return ValidationError{"universe.pool_cap", "must be >= 0"}
	}

	// === Screen ===
	if cfg.Screen.StackCap < 1 {
		return ValidationError{"screen.stack_cap", "must be >= 1"}
	}
	if cfg.Screen.Screener != "" {
		if _, err := screener.ForName(cfg.Screen.Screener); err != nil {
			return ValidationError{"screen.screener", err.Error()}
		}
	}

	// === Valuation ===
	if cfg.Valuation.Years < 1 {
		return ValidationError{"valuation.years", "must be >= 1"}
	}
	if cfg.Valuation.DiscountRate <= cfg.Valuation.TerminalGrowth {
		return ValidationError{"valuation", "discount_rate must be > terminal_growth"}
	}
	if cfg.Valuation.GrowthFloor > cfg.Valuation.GrowthCeil {
		return ValidationError{"valuation", "growth_floor must be <= growth_ceil"}
	}
	if cfg.Valuation.DefaultGrowth < cfg.Valuation.GrowthFloor || cfg.Valuation.DefaultGrowth > cfg.Valuation.GrowthCeil {
		return ValidationError{"valuation.default_growth", "must be within [growth_floor, growth_ceil]"}
	}

	// === Gates ===
	bounds := []struct {
		field string
		value float64
	}{
		{"gates.roic_min", cfg.Gates.ROICMin},
		{"gates.roe_min", cfg.Gates.ROEMin},
		{"gates.fcf_margin_min", cfg.Gates.FCFMarginMin},
		{"gates.net_debt_to_ebitda_max", cfg.Gates.NetDebtToEBITDAMax},
		{"gates.interest_coverage_min", cfg.Gates.InterestCoverageMin},
		{"gates.pb_max", cfg.Gates.PBMax},
		{"gates.pe_max", cfg.Gates.PEMax},
		{"gates.mos_upside_min", cfg.Gates.MOSUpsideMin},
	}
	for _, b := range bounds {
		if b.value < 0 {
			return ValidationError{b.field, "must be >= 0"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// MOS 문턱이 낮으면 할인 폭이 얕은 종목까지 통과
	if cfg.Gates.MOSUpsideMin < 20.0 {
		warnings = append(warnings, Warning{
			Code:    "LOW_MOS",
			Message: fmt.Sprintf("mos_upside_min %.1f%% accepts names barely below fair value", cfg.Gates.MOSUpsideMin),
		})
	}

	// pool_cap 0 = 무제한: 전체 상장 목록을 훑게 됨
	if cfg.Universe.PoolCap == 0 {
		warnings = append(warnings, Warning{
			Code:    "UNBOUNDED_POOL",
			Message: "pool_cap 0 keeps every census match, discovery walks the full exchange listing",
		})
	}

	// 할인율-영구성장률 스프레드가 좁으면 터미널 가치 급증
	if cfg.Valuation.DiscountRate-cfg.Valuation.TerminalGrowth < 0.05 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_SPREAD",
			Message: "discount_rate minus terminal_growth below 5%p inflates terminal values",
		})
	}

	if cfg.Valuation.GrowthCeil > 0.15 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_GROWTH_CEIL",
			Message: fmt.Sprintf("growth_ceil %.0f%% lets optimistic revenue trends through the clamp", cfg.Valuation.GrowthCeil*100),
		})
	}

	return warnings
}
