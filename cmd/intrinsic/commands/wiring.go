package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wonny/intrinsic/internal/diskcache"
	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/external/stooq"
	"github.com/wonny/intrinsic/internal/external/yahoo"
	"github.com/wonny/intrinsic/internal/fundamentals"
	"github.com/wonny/intrinsic/internal/pipeline"
	"github.com/wonny/intrinsic/internal/prices"
	"github.com/wonny/intrinsic/internal/store"
	"github.com/wonny/intrinsic/internal/strategyconfig"
	"github.com/wonny/intrinsic/internal/universe"
	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/database"
	"github.com/wonny/intrinsic/pkg/logger"
)

// loadRuntime loads the environment config and builds the logger
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

// loadStrategy resolves the strategy config: --strategy flag first, then
// STRATEGY_FILE, then built-in defaults. Warnings go straight to stdout.
func loadStrategy(cfg *config.Config) (*strategyconfig.Config, error) {
	path := strategyFile
	if path == "" {
		path = cfg.StrategyFile
	}

	strat, _, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}

	for _, w := range strategyconfig.Warn(strat) {
		fmt.Printf("⚠️  %s: %s\n", w.Code, w.Message)
	}

	return strat, nil
}

// caches builds the two disk stores the fetch layer runs on. Fundamentals
// and overviews live in separate directories because their TTLs differ.
func caches(cfg *config.Config, log *logger.Logger) (fund, overviews *diskcache.Store) {
	fund = diskcache.NewStore(filepath.Join(cfg.Cache.Dir, "fundamentals"), cfg.Cache.FundamentalsTTL, log)
	overviews = diskcache.NewStore(filepath.Join(cfg.Cache.Dir, "overviews"), cfg.Cache.OverviewTTL, log)
	return fund, overviews
}

// buildPipeline wires the vendor client, caches and services into a
// ready-to-run pipeline
// ⭐ SSOT: 파이프라인 조립은 이 함수에서만
func buildPipeline(cfg *config.Config, log *logger.Logger) *pipeline.Pipeline {
	// 1. Vendor + price source clients
	av := alphavantage.NewClient(cfg, log)
	yc := yahoo.NewClient(cfg, log)
	sc := stooq.NewClient(cfg, log)

	// 2. Response caches
	fundCache, overviewCache := caches(cfg, log)

	// 3. Services
	bundles := fundamentals.NewStore(av, fundCache, overviewCache, log)
	pools := universe.NewBuilder(av, overviewCache, log)
	quotes := prices.NewService(cfg, yc, sc, av, log)

	return pipeline.New(pools, bundles, quotes, av, log)
}

// buildUniverse wires just the discovery stage for the universe command
func buildUniverse(cfg *config.Config, log *logger.Logger) *universe.Builder {
	av := alphavantage.NewClient(cfg, log)
	_, overviewCache := caches(cfg, log)
	return universe.NewBuilder(av, overviewCache, log)
}

// maybeRepo opens the optional results store. A missing DATABASE_URL is
// not an error: persistence is simply off.
func maybeRepo(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Repository, func(), error) {
	if !cfg.Database.Enabled() {
		log.Info("Result persistence disabled (DATABASE_URL not set)")
		return nil, func() {}, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := store.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	return repo, db.Close, nil
}
