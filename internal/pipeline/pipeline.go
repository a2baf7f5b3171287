// Package pipeline drives one screen run end to end: sector discovery,
// optional factor pre-rank, fundamentals, price resolution, valuation and
// the quality/MOS gates. Symbols are processed one at a time; the vendor
// pacing clock lives in the fetcher, not here.
package pipeline

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/fundamentals"
	"github.com/wonny/intrinsic/internal/gate"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/internal/prices"
	"github.com/wonny/intrinsic/internal/screener"
	"github.com/wonny/intrinsic/internal/strategyconfig"
	"github.com/wonny/intrinsic/internal/universe"
	"github.com/wonny/intrinsic/internal/valuation"
	"github.com/wonny/intrinsic/pkg/logger"
)

// PoolSource discovers the per-sector symbol pools.
type PoolSource interface {
	Discover(ctx context.Context, p universe.Params) (map[string][]string, error)
}

// BundleSource returns the normalized fundamentals for one symbol.
type BundleSource interface {
	FetchBundle(ctx context.Context, symbol string, useCache bool) (*fundamentals.Bundle, outcome.Result)
}

// QuoteSource resolves one market price.
type QuoteSource interface {
	Resolve(ctx context.Context, symbol string) (*prices.Quote, outcome.Result)
}

// BarSource returns daily adjusted history for the factor screens.
type BarSource interface {
	DailyAdjusted(ctx context.Context, symbol, outputsize string) ([]alphavantage.Bar, outcome.Result)
}

// RunRecord is the identity and accounting for one screen run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	StrategyID string    `json:"strategy_id"`
	ConfigHash string    `json:"config_hash"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scanned    int       `json:"scanned"`
	Evaluated  int       `json:"evaluated"`
	Passed     int       `json:"passed"`
	Skipped    int       `json:"skipped"`
	Truncated  bool      `json:"truncated"`
	// TruncatedAt names the symbol where the vendor throttled, or the
	// sector when the throttle hit during the pre-rank.
	TruncatedAt string `json:"truncated_at,omitempty"`
}

// Candidate is the full evaluation trail for one symbol.
type Candidate struct {
	Symbol      string                `json:"symbol"`
	Sector      string                `json:"sector"`
	Outcome     string                `json:"outcome"`
	Note        string                `json:"note,omitempty"`
	PriceSource string                `json:"price_source,omitempty"`
	Snapshot    fundamentals.Snapshot `json:"snapshot"`
	Valuation   valuation.Valuation   `json:"valuation"`
	Quality     gate.Verdict          `json:"quality"`
	MOS         gate.Verdict          `json:"mos"`
	Verdict     gate.Verdict          `json:"verdict"`
}

// RunResult carries everything a run produced, partial or not.
type RunResult struct {
	Record RunRecord           `json:"record"`
	Pools  map[string][]string `json:"pools,omitempty"`
	// Candidates holds every attempted symbol in evaluation order,
	// including the ones that yielded nothing.
	Candidates []Candidate `json:"candidates"`
	// Kept holds the gate passers, deepest discount first, bounded per
	// sector by NamesPerSector.
	Kept []Candidate `json:"kept"`
}

// Pipeline drives one screen run.
// ⭐ SSOT: 심사 순서와 조기 중단 규칙은 이 파이프라인에서만
type Pipeline struct {
	pools   PoolSource
	bundles BundleSource
	quotes  QuoteSource
	bars    BarSource
	logger  *logger.Logger
}

// New wires the pipeline stages.
func New(pools PoolSource, bundles BundleSource, quotes QuoteSource, bars BarSource, log *logger.Logger) *Pipeline {
	return &Pipeline{pools: pools, bundles: bundles, quotes: quotes, bars: bars, logger: log}
}

// Run executes the configured screen. A vendor throttle truncates the run
// and returns what was finished; only pre-flight failures return an error.
func (p *Pipeline) Run(ctx context.Context, cfg *strategyconfig.Config) (*RunResult, error) {
	record, err := newRecord(cfg)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Record: record}

	p.logger.WithFields(map[string]interface{}{
		"run_id":   record.RunID,
		"strategy": cfg.Meta.StrategyID,
		"sectors":  len(cfg.Universe.Sectors),
		"screener": cfg.Screen.Screener,
	}).Info("Starting screen run")

	pools, err := p.pools.Discover(ctx, cfg.Universe)
	if err != nil {
		return nil, err
	}
	result.Pools = pools

scan:
	for _, sector := range cfg.Universe.Sectors {
		pool := pools[sector]
		result.Record.Scanned += len(pool)

		stack, res := p.stack(ctx, cfg, sector, pool)
		if res.IsThrottled() {
			result.Record.Truncated = true
			result.Record.TruncatedAt = sector
			p.logger.WithFields(map[string]interface{}{
				"sector": sector,
				"note":   res.Reason,
			}).Warn("Vendor throttled during pre-rank, truncating run")
			break
		}

		for _, symbol := range stack {
			cand, cres := p.evaluate(ctx, cfg, sector, symbol)
			result.Candidates = append(result.Candidates, cand)

			if cres.IsThrottled() {
				result.Record.Truncated = true
				result.Record.TruncatedAt = cand.Symbol
				p.logger.WithFields(map[string]interface{}{
					"symbol": cand.Symbol,
					"note":   cres.Reason,
				}).Warn("Vendor throttled, truncating run")
				break scan
			}
			if !cres.OK() {
				result.Record.Skipped++
				continue
			}
			result.Record.Evaluated++
			if cand.Verdict.Pass {
				result.Record.Passed++
			}
		}
	}

	p.keep(cfg, result)
	result.Record.FinishedAt = time.Now().UTC()

	p.logger.WithFields(map[string]interface{}{
		"run_id":    result.Record.RunID,
		"scanned":   result.Record.Scanned,
		"evaluated": result.Record.Evaluated,
		"passed":    result.Record.Passed,
		"kept":      len(result.Kept),
		"truncated": result.Record.Truncated,
	}).Info("Screen run finished")

	return result, nil
}

// EvaluateSymbols runs the evaluation chain over explicit symbols, skipping
// discovery and ranking. Candidates without a sector label take the vendor
// profile's sector. Every passer is kept, deepest discount first.
func (p *Pipeline) EvaluateSymbols(ctx context.Context, cfg *strategyconfig.Config, symbols []string) (*RunResult, error) {
	record, err := newRecord(cfg)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Record: record}
	result.Record.Scanned = len(symbols)

	for _, symbol := range symbols {
		cand, res := p.evaluate(ctx, cfg, "", symbol)
		if cand.Sector == "" {
			cand.Sector = cand.Snapshot.Sector
		}
		result.Candidates = append(result.Candidates, cand)

		if res.IsThrottled() {
			result.Record.Truncated = true
			result.Record.TruncatedAt = cand.Symbol
			p.logger.WithField("symbol", cand.Symbol).Warn("Vendor throttled, truncating run")
			break
		}
		if !res.OK() {
			result.Record.Skipped++
			continue
		}
		result.Record.Evaluated++
		if cand.Verdict.Pass {
			result.Record.Passed++
			result.Kept = append(result.Kept, cand)
		}
	}

	sort.SliceStable(result.Kept, func(i, j int) bool {
		return upsideOf(result.Kept[i]) > upsideOf(result.Kept[j])
	})
	result.Record.FinishedAt = time.Now().UTC()
	return result, nil
}

// stack bounds one sector pool to the symbols worth a full evaluation.
// With no screener configured the discovery order survives, seeds first.
func (p *Pipeline) stack(ctx context.Context, cfg *strategyconfig.Config, sector string, pool []string) ([]string, outcome.Result) {
	limit := cfg.Screen.StackCap
	if limit < 1 {
		limit = 1
	}

	if cfg.Screen.Screener == "" {
		if len(pool) > limit {
			pool = pool[:limit]
		}
		return pool, outcome.Successful()
	}

	scr, err := screener.ForName(cfg.Screen.Screener)
	if err != nil {
		p.logger.WithError(err).Warn("Unknown screener, keeping discovery order")
		if len(pool) > limit {
			pool = pool[:limit]
		}
		return pool, outcome.Successful()
	}

	needs := scr.Needs()
	ranked := make([]screener.Result, 0, len(pool))
	for _, symbol := range pool {
		in, res := p.inputs(ctx, symbol, needs)
		if res.IsThrottled() {
			return nil, res
		}
		if !res.OK() {
			continue
		}
		score, details, ok := scr.Evaluate(in)
		if !ok {
			continue
		}
		ranked = append(ranked, screener.Result{Symbol: symbol, Score: score, Details: details})
	}
	screener.Rank(ranked)

	stack := make([]string, 0, limit)
	for _, r := range ranked {
		stack = append(stack, r.Symbol)
		if len(stack) == limit {
			break
		}
	}
	p.logger.WithFields(map[string]interface{}{
		"sector":   sector,
		"screener": scr.Name(),
		"pool":     len(pool),
		"stack":    len(stack),
	}).Debug("Sector stack ranked")
	return stack, outcome.Successful()
}

// inputs fetches what one screen declared it needs for one symbol.
func (p *Pipeline) inputs(ctx context.Context, symbol string, needs screener.Needs) (screener.Inputs, outcome.Result) {
	var in screener.Inputs
	if needs.Bundle {
		b, res := p.bundles.FetchBundle(ctx, symbol, true)
		if !res.OK() {
			return in, res
		}
		in.Bundle = b
	}
	if needs.Bars {
		bars, res := p.bars.DailyAdjusted(ctx, symbol, "full")
		if !res.OK() {
			return in, res
		}
		in.Bars = bars
	}
	return in, outcome.Successful()
}

// evaluate runs fundamentals, price, DCF and gates for one symbol.
func (p *Pipeline) evaluate(ctx context.Context, cfg *strategyconfig.Config, sector, symbol string) (Candidate, outcome.Result) {
	cand := Candidate{
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Sector: sector,
	}

	bundle, res := p.bundles.FetchBundle(ctx, cand.Symbol, true)
	if !res.OK() {
		cand.Outcome = res.Status.String()
		cand.Note = noteOf(res)
		return cand, res
	}

	quote, qres := p.quotes.Resolve(ctx, cand.Symbol)
	if qres.IsThrottled() {
		cand.Outcome = qres.Status.String()
		cand.Note = noteOf(qres)
		return cand, qres
	}
	var price *float64
	if quote != nil {
		price = &quote.Price
		cand.PriceSource = quote.Source
	}

	cand.Snapshot = fundamentals.Compute(bundle, price)
	cand.Valuation = valuation.Run(cand.Snapshot, cfg.Valuation)
	cand.Quality = gate.Quality(cand.Snapshot, cfg.Gates)
	cand.MOS = gate.MOS(cand.Valuation.UpsidePercent, cfg.Gates)
	cand.Verdict = gate.Combined(cand.Quality, cand.MOS)
	cand.Outcome = outcome.Success.String()

	p.logger.WithFields(map[string]interface{}{
		"symbol":       cand.Symbol,
		"sector":       sector,
		"pass":         cand.Verdict.Pass,
		"price_source": cand.PriceSource,
	}).Info("Symbol evaluated")

	return cand, outcome.Successful()
}

// keep selects the final names per sector: gate passers only, deepest
// discount first, bounded by NamesPerSector.
func (p *Pipeline) keep(cfg *strategyconfig.Config, result *RunResult) {
	bySector := make(map[string][]Candidate)
	for _, cand := range result.Candidates {
		if cand.Verdict.Pass {
			bySector[cand.Sector] = append(bySector[cand.Sector], cand)
		}
	}

	for _, sector := range cfg.Universe.Sectors {
		passers := bySector[sector]
		sort.SliceStable(passers, func(i, j int) bool {
			return upsideOf(passers[i]) > upsideOf(passers[j])
		})
		if len(passers) > cfg.Universe.NamesPerSector {
			passers = passers[:cfg.Universe.NamesPerSector]
		}
		result.Kept = append(result.Kept, passers...)
	}
}

func newRecord(cfg *strategyconfig.Config) (RunRecord, error) {
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return RunRecord{}, err
	}
	return RunRecord{
		RunID:      uuid.New().String(),
		StrategyID: cfg.Meta.StrategyID,
		ConfigHash: hash,
		StartedAt:  time.Now().UTC(),
	}, nil
}

func upsideOf(c Candidate) float64 {
	if c.Valuation.UpsidePercent == nil {
		return math.Inf(-1)
	}
	return *c.Valuation.UpsidePercent
}

func noteOf(res outcome.Result) string {
	if res.Reason != "" {
		return res.Reason
	}
	if res.Err != nil {
		return res.Err.Error()
	}
	return ""
}
