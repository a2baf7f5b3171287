package strategyconfig

import (
	"github.com/wonny/intrinsic/internal/gate"
	"github.com/wonny/intrinsic/internal/universe"
	"github.com/wonny/intrinsic/internal/valuation"
)

// Config는 스크리닝 전략의 전체 설정
// ⭐ SSOT: 전략 파라미터는 이 구조체에서만 정의
type Config struct {
	Meta      Meta             `yaml:"meta" json:"meta"`
	Universe  universe.Params  `yaml:"universe" json:"universe"`
	Screen    Screen           `yaml:"screen" json:"screen"`
	Valuation valuation.Params `yaml:"valuation" json:"valuation"`
	Gates     gate.Thresholds  `yaml:"gates" json:"gates"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Screen controls the factor pre-rank that bounds how many names per
// sector reach the full fundamentals evaluation. An empty Screener keeps
// the discovery order, seeds ahead of census matches.
type Screen struct {
	Screener string `yaml:"screener" json:"screener"`
	StackCap int    `yaml:"stack_cap" json:"stack_cap"`
}

// Default returns the baseline strategy. Loaded YAML overlays it, so a
// partial file only needs the fields it changes.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "us_sector_value_v1",
			Version:    "1",
		},
		Universe: universe.Params{
			Sectors:        []string{"Defence", "Energy", "Health", "Metals"},
			Exchanges:      append([]string{}, universe.DefaultExchanges...),
			NamesPerSector: 3,
			PoolCap:        600,
		},
		Screen: Screen{
			StackCap: 8,
		},
		Valuation: valuation.DefaultParams(),
		Gates:     gate.DefaultThresholds(),
	}
}
