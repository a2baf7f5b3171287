package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/fundamentals"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/internal/prices"
	"github.com/wonny/intrinsic/internal/strategyconfig"
	"github.com/wonny/intrinsic/internal/universe"
	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/logger"
)

type stubPools struct {
	pools map[string][]string
	err   error
	got   universe.Params
}

func (s *stubPools) Discover(_ context.Context, p universe.Params) (map[string][]string, error) {
	s.got = p
	return s.pools, s.err
}

type stubBundles struct {
	bundles map[string]*fundamentals.Bundle
	results map[string]outcome.Result
	calls   []string
}

func (s *stubBundles) FetchBundle(_ context.Context, symbol string, _ bool) (*fundamentals.Bundle, outcome.Result) {
	s.calls = append(s.calls, symbol)
	if res, ok := s.results[symbol]; ok {
		return nil, res
	}
	if b, ok := s.bundles[symbol]; ok {
		return b, outcome.Successful()
	}
	return nil, outcome.EmptyWith("no fundamentals data")
}

type stubQuotes struct {
	quotes  map[string]float64
	results map[string]outcome.Result
}

func (s *stubQuotes) Resolve(_ context.Context, symbol string) (*prices.Quote, outcome.Result) {
	if res, ok := s.results[symbol]; ok {
		return nil, res
	}
	if px, ok := s.quotes[symbol]; ok {
		return &prices.Quote{Symbol: symbol, Price: px, Source: "stub", AsOf: time.Now().UTC()}, outcome.Successful()
	}
	return nil, outcome.EmptyWith("no price source succeeded")
}

type stubBars struct {
	bars    map[string][]alphavantage.Bar
	results map[string]outcome.Result
	calls   []string
}

func (s *stubBars) DailyAdjusted(_ context.Context, symbol, _ string) ([]alphavantage.Bar, outcome.Result) {
	s.calls = append(s.calls, symbol)
	if res, ok := s.results[symbol]; ok {
		return nil, res
	}
	if bars, ok := s.bars[symbol]; ok {
		return bars, outcome.Successful()
	}
	return nil, outcome.EmptyWith("no series")
}

func newTestPipeline(t *testing.T, pools *stubPools, bundles *stubBundles, quotes *stubQuotes, bars *stubBars) *Pipeline {
	t.Helper()
	log := logger.New(&config.Config{Env: "test", LogLevel: "error"})
	return New(pools, bundles, quotes, bars, log)
}

func fp(v float64) *float64 { return &v }

func annual(year int, values map[string]*float64) fundamentals.PeriodRecord {
	return fundamentals.PeriodRecord{
		PeriodEnd: time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Values:    values,
	}
}

// solidBundle clears every quality gate; whether MOS clears too depends on
// the quote fed in (fair value per share lands near 55.8).
func solidBundle(symbol, sector string) *fundamentals.Bundle {
	return &fundamentals.Bundle{
		Symbol: symbol,
		Overview: fundamentals.CompanyProfile{
			Symbol:            symbol,
			Name:              symbol + " Corp",
			Sector:            sector,
			SharesOutstanding: fp(100),
			MarketCap:         fp(2000),
			EBITDA:            fp(450),
			PE:                fp(10),
			PB:                fp(2),
		},
		Income: fundamentals.Series{Kind: fundamentals.KindIncome, Periods: []fundamentals.PeriodRecord{
			annual(2025, map[string]*float64{
				fundamentals.FieldRevenue:         fp(1000),
				fundamentals.FieldGrossProfit:     fp(600),
				fundamentals.FieldOperatingIncome: fp(400),
				fundamentals.FieldNetIncome:       fp(300),
				fundamentals.FieldInterestExpense: fp(10),
			}),
		}},
		Balance: fundamentals.Series{Kind: fundamentals.KindBalance, Periods: []fundamentals.PeriodRecord{
			annual(2025, map[string]*float64{
				fundamentals.FieldTotalDebt: fp(100),
				fundamentals.FieldCash:      fp(100),
				fundamentals.FieldEquity:    fp(1000),
			}),
		}},
		CashFlow: fundamentals.Series{Kind: fundamentals.KindCashFlow, Periods: []fundamentals.PeriodRecord{
			annual(2025, map[string]*float64{
				fundamentals.FieldOperatingCashflow:   fp(500),
				fundamentals.FieldCapitalExpenditures: fp(-100),
			}),
		}},
	}
}

// trendBars builds n daily bars priced at base, with the last 21 at recent.
func trendBars(n int, base, recent float64) []alphavantage.Bar {
	bars := make([]alphavantage.Bar, n)
	day := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		v := base
		if i >= n-21 {
			v = recent
		}
		bars[i] = alphavantage.Bar{Date: day.AddDate(0, 0, i), AdjClose: &v}
	}
	return bars
}

func testCfg(sectors ...string) *strategyconfig.Config {
	cfg := strategyconfig.Default()
	cfg.Universe.Sectors = sectors
	cfg.Universe.NamesPerSector = 1
	return cfg
}

func TestRunKeepsDeepestDiscountPerSector(t *testing.T) {
	pools := &stubPools{pools: map[string][]string{
		"Defence": {"GOODA", "DEEP", "DEAR"},
		"Energy":  {"GONE", "SOLID"},
	}}
	bundles := &stubBundles{bundles: map[string]*fundamentals.Bundle{
		"GOODA": solidBundle("GOODA", "Industrials"),
		"DEEP":  solidBundle("DEEP", "Industrials"),
		"DEAR":  solidBundle("DEAR", "Industrials"),
		"SOLID": solidBundle("SOLID", "Energy"),
	}}
	quotes := &stubQuotes{quotes: map[string]float64{
		"GOODA": 20,
		"DEEP":  10,
		"DEAR":  60,
		"SOLID": 20,
	}}
	p := newTestPipeline(t, pools, bundles, quotes, &stubBars{})

	cfg := testCfg("Defence", "Energy")
	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Universe.Sectors, pools.got.Sectors)
	assert.Equal(t, pools.pools, result.Pools)

	rec := result.Record
	assert.Len(t, rec.RunID, 36)
	assert.Len(t, rec.ConfigHash, 64)
	assert.Equal(t, 5, rec.Scanned)
	assert.Equal(t, 4, rec.Evaluated)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 3, rec.Passed)
	assert.False(t, rec.Truncated)
	assert.False(t, rec.FinishedAt.IsZero())

	require.Len(t, result.Candidates, 5)
	require.Len(t, result.Kept, 2)
	assert.Equal(t, "DEEP", result.Kept[0].Symbol)
	assert.Equal(t, "Defence", result.Kept[0].Sector)
	assert.Equal(t, "SOLID", result.Kept[1].Symbol)
	require.NotNil(t, result.Kept[0].Valuation.UpsidePercent)
	assert.Greater(t, *result.Kept[0].Valuation.UpsidePercent, 400.0)
	assert.Equal(t, "stub", result.Kept[0].PriceSource)

	// DEAR clears quality but the discount is too thin.
	var dear Candidate
	for _, cand := range result.Candidates {
		if cand.Symbol == "DEAR" {
			dear = cand
		}
	}
	assert.True(t, dear.Quality.Pass)
	assert.False(t, dear.MOS.Pass)
	assert.False(t, dear.Verdict.Pass)
	assert.Equal(t, []string{"Upside<50.0%"}, dear.MOS.Reasons)

	var gone Candidate
	for _, cand := range result.Candidates {
		if cand.Symbol == "GONE" {
			gone = cand
		}
	}
	assert.Equal(t, "empty", gone.Outcome)
	assert.Equal(t, "no fundamentals data", gone.Note)
}

func TestRunTruncatesOnBundleThrottle(t *testing.T) {
	pools := &stubPools{pools: map[string][]string{
		"Defence": {"AAA", "BBB", "CCC"},
		"Energy":  {"DDD"},
	}}
	bundles := &stubBundles{
		bundles: map[string]*fundamentals.Bundle{
			"AAA": solidBundle("AAA", "Industrials"),
			"CCC": solidBundle("CCC", "Industrials"),
			"DDD": solidBundle("DDD", "Energy"),
		},
		results: map[string]outcome.Result{
			"BBB": outcome.ThrottledWith("rate limit note"),
		},
	}
	quotes := &stubQuotes{quotes: map[string]float64{"AAA": 20}}
	p := newTestPipeline(t, pools, bundles, quotes, &stubBars{})

	result, err := p.Run(context.Background(), testCfg("Defence", "Energy"))
	require.NoError(t, err)

	rec := result.Record
	assert.True(t, rec.Truncated)
	assert.Equal(t, "BBB", rec.TruncatedAt)
	assert.Equal(t, 3, rec.Scanned, "Energy is never reached")
	assert.Equal(t, 1, rec.Evaluated)
	assert.Equal(t, 0, rec.Skipped)
	assert.Equal(t, 1, rec.Passed)

	assert.Equal(t, []string{"AAA", "BBB"}, bundles.calls)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "throttled", result.Candidates[1].Outcome)
	assert.Equal(t, "rate limit note", result.Candidates[1].Note)
	require.Len(t, result.Kept, 1)
	assert.Equal(t, "AAA", result.Kept[0].Symbol)
}

func TestRunPriceThrottleTruncates(t *testing.T) {
	pools := &stubPools{pools: map[string][]string{"Energy": {"AAA", "BBB"}}}
	bundles := &stubBundles{bundles: map[string]*fundamentals.Bundle{
		"AAA": solidBundle("AAA", "Energy"),
		"BBB": solidBundle("BBB", "Energy"),
	}}
	quotes := &stubQuotes{results: map[string]outcome.Result{
		"AAA": outcome.ThrottledWith("quote quota"),
	}}
	p := newTestPipeline(t, pools, bundles, quotes, &stubBars{})

	result, err := p.Run(context.Background(), testCfg("Energy"))
	require.NoError(t, err)

	assert.True(t, result.Record.Truncated)
	assert.Equal(t, "AAA", result.Record.TruncatedAt)
	assert.Equal(t, 0, result.Record.Evaluated)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "throttled", result.Candidates[0].Outcome)
	assert.Empty(t, result.Kept)
}

func TestRunFatalSkipsSymbol(t *testing.T) {
	pools := &stubPools{pools: map[string][]string{"Energy": {"AAA", "BBB"}}}
	bundles := &stubBundles{
		bundles: map[string]*fundamentals.Bundle{
			"BBB": solidBundle("BBB", "Energy"),
		},
		results: map[string]outcome.Result{
			"AAA": outcome.FatalWith(errors.New("dial tcp refused")),
		},
	}
	quotes := &stubQuotes{quotes: map[string]float64{"BBB": 20}}
	p := newTestPipeline(t, pools, bundles, quotes, &stubBars{})

	result, err := p.Run(context.Background(), testCfg("Energy"))
	require.NoError(t, err)

	rec := result.Record
	assert.False(t, rec.Truncated)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 1, rec.Evaluated)
	assert.Equal(t, 1, rec.Passed)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "fatal", result.Candidates[0].Outcome)
	assert.Equal(t, "dial tcp refused", result.Candidates[0].Note)
	require.Len(t, result.Kept, 1)
	assert.Equal(t, "BBB", result.Kept[0].Symbol)
}

func TestRunScreenerRanksStack(t *testing.T) {
	pools := &stubPools{pools: map[string][]string{"Energy": {"SLOW", "FAST", "FLAT"}}}
	bundles := &stubBundles{bundles: map[string]*fundamentals.Bundle{
		"SLOW": solidBundle("SLOW", "Energy"),
		"FAST": solidBundle("FAST", "Energy"),
		"FLAT": solidBundle("FLAT", "Energy"),
	}}
	quotes := &stubQuotes{quotes: map[string]float64{"SLOW": 20, "FAST": 20, "FLAT": 20}}
	bars := &stubBars{bars: map[string][]alphavantage.Bar{
		"SLOW": trendBars(260, 100, 120),
		"FAST": trendBars(260, 100, 150),
		"FLAT": trendBars(100, 100, 100),
	}}
	p := newTestPipeline(t, pools, bundles, quotes, bars)

	cfg := testCfg("Energy")
	cfg.Screen.Screener = "momentum"
	cfg.Screen.StackCap = 2
	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	// Every pool symbol is scored, only the ranked stack gets fundamentals.
	assert.Equal(t, []string{"SLOW", "FAST", "FLAT"}, bars.calls)
	assert.Equal(t, []string{"FAST", "SLOW"}, bundles.calls)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "FAST", result.Candidates[0].Symbol)
	assert.Equal(t, "SLOW", result.Candidates[1].Symbol)
	assert.Equal(t, 2, result.Record.Evaluated)
}

func TestRunScreenerThrottleDuringRank(t *testing.T) {
	pools := &stubPools{pools: map[string][]string{"Energy": {"SLOW", "FAST", "FLAT"}}}
	bars := &stubBars{results: map[string]outcome.Result{
		"SLOW": outcome.ThrottledWith("series quota"),
	}}
	p := newTestPipeline(t, pools, &stubBundles{}, &stubQuotes{}, bars)

	cfg := testCfg("Energy")
	cfg.Screen.Screener = "momentum"
	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.Record.Truncated)
	assert.Equal(t, "Energy", result.Record.TruncatedAt)
	assert.Equal(t, 3, result.Record.Scanned)
	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.Kept)
}

func TestEvaluateSymbols(t *testing.T) {
	bundles := &stubBundles{bundles: map[string]*fundamentals.Bundle{
		"SOLID": solidBundle("SOLID", "Energy"),
	}}
	quotes := &stubQuotes{quotes: map[string]float64{"SOLID": 20}}
	p := newTestPipeline(t, &stubPools{}, bundles, quotes, &stubBars{})

	result, err := p.EvaluateSymbols(context.Background(), strategyconfig.Default(), []string{"solid", "missing"})
	require.NoError(t, err)

	rec := result.Record
	assert.Equal(t, 2, rec.Scanned)
	assert.Equal(t, 1, rec.Evaluated)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 1, rec.Passed)

	require.Len(t, result.Kept, 1)
	assert.Equal(t, "SOLID", result.Kept[0].Symbol)
	assert.Equal(t, "Energy", result.Kept[0].Sector, "sector falls back to the vendor profile")
	assert.Equal(t, "MISSING", result.Candidates[1].Symbol, "input symbols are folded to upper case")
}
