package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/intrinsic/internal/export"
	"github.com/wonny/intrinsic/internal/strategyconfig"
	"github.com/wonny/intrinsic/internal/thesis"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "섹터 전체를 스캔하여 저평가 종목 발굴",
	Long: `섹터 유니버스를 구성하고 펀더멘털 기반 가치 평가를 수행합니다.

흐름: 유니버스 구성 → 사전 스크리닝 → 재무제표 수집 → 지표 산출
→ DCF 밸류에이션 → 게이트 판정 → 결과 저장

벤더 쿼터가 소진되면 그 시점까지의 부분 결과를 기록하고 종료합니다.`,
	Example: `  # 기본 전략으로 스크리닝
  intrinsic screen

  # 섹터와 종목 수 조정
  intrinsic screen --sectors Defence,Energy --names-per-sector 5

  # 결과 CSV 누적 + 투자 메모 생성
  intrinsic screen --export out/picks.csv --thesis`,
	RunE: runScreen,
}

var (
	screenSectors   []string
	screenExchanges []string
	screenNames     int
	screenPoolCap   int
	screenScreener  string
	screenStackCap  int
	screenMOS       float64
	screenPause     time.Duration
	screenPriceSrc  string
	screenExport    string
	screenFactors   string
	screenThesis    bool
	screenPersist   bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringSliceVar(&screenSectors, "sectors", nil, "스캔할 섹터 목록 (기본: 전략 설정)")
	screenCmd.Flags().StringSliceVar(&screenExchanges, "exchanges", nil, "허용 거래소 (기본: NYSE,NASDAQ,AMEX)")
	screenCmd.Flags().IntVar(&screenNames, "names-per-sector", 0, "섹터당 최종 평가 종목 수")
	screenCmd.Flags().IntVar(&screenPoolCap, "pool-cap", 0, "섹터당 후보 풀 상한")
	screenCmd.Flags().StringVar(&screenScreener, "screener", "", "사전 스크리닝 팩터 (momentum|near-high|pead|piotroski|magic-formula)")
	screenCmd.Flags().IntVar(&screenStackCap, "stack-cap", 0, "사전 스크리닝 통과 종목 상한")
	screenCmd.Flags().Float64Var(&screenMOS, "mos", 0, "안전마진 게이트: 최소 상승여력 %")
	screenCmd.Flags().DurationVar(&screenPause, "pause", 0, "벤더 API 호출 간 최소 간격 (기본: AV_PAUSE)")
	screenCmd.Flags().StringVar(&screenPriceSrc, "price-source", "", "가격 소스 순서 (예: yahoo,stooq,vendor)")
	screenCmd.Flags().StringVar(&screenExport, "export", "", "통과 종목을 누적할 CSV 경로")
	screenCmd.Flags().StringVar(&screenFactors, "save-factors", "", "평가 전체 팩터를 누적할 CSV 경로")
	screenCmd.Flags().BoolVar(&screenThesis, "thesis", false, "통과 종목별 투자 메모 생성")
	screenCmd.Flags().BoolVar(&screenPersist, "persist", true, "DATABASE_URL 설정 시 결과를 DB에 저장")
}

func runScreen(cmd *cobra.Command, args []string) error {
	PrintDoubleSeparator()
	fmt.Println("  Intrinsic Screen")
	PrintDoubleSeparator()

	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("pause") {
		cfg.AlphaVantage.Pause = screenPause
	}
	if screenPriceSrc != "" {
		cfg.PriceSources = screenPriceSrc
	}

	// 2. Strategy config with flag overrides
	strat, err := loadStrategy(cfg)
	if err != nil {
		return err
	}
	applyScreenOverrides(cmd, strat)
	if err := strategyconfig.Validate(strat); err != nil {
		return fmt.Errorf("strategy config: %w", err)
	}

	hash, err := strategyconfig.Hash(strat)
	if err != nil {
		return fmt.Errorf("hash strategy config: %w", err)
	}
	fmt.Printf("📋 Strategy: %s v%s (config %.8s)\n", strat.Meta.StrategyID, strat.Meta.Version, hash)
	fmt.Printf("🔎 Sectors: %s | names/sector: %d | min upside: %.0f%%\n",
		strings.Join(strat.Universe.Sectors, ", "), strat.Universe.NamesPerSector, strat.Gates.MOSUpsideMin)
	fmt.Println()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Optional persistence
	repo, closeDB, err := maybeRepo(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	// 4. Run the pipeline
	pipe := buildPipeline(cfg, log)
	started := time.Now()
	result, err := pipe.Run(ctx, strat)
	if err != nil {
		return fmt.Errorf("screen run: %w", err)
	}

	// 5. Report to console
	printRunSummary(*result, time.Since(started))

	// 6. Publish artifacts
	if _, err := export.WriteRunArtifact(cfg.OutputDir, *result); err != nil {
		return fmt.Errorf("write run artifact: %w", err)
	}
	if err := export.WriteSummary(filepath.Join(cfg.OutputDir, "summary.csv"), *result); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	fmt.Println()
	fmt.Printf("📦 Artifacts: %s\n", cfg.OutputDir)

	if screenExport != "" {
		n, err := export.AppendPicks(screenExport, *result, strat.Meta.StrategyID)
		if err != nil {
			return fmt.Errorf("append picks: %w", err)
		}
		fmt.Printf("📦 Picks: %d rows → %s\n", n, screenExport)
	}
	if screenFactors != "" {
		n, err := export.AppendFactors(screenFactors, *result)
		if err != nil {
			return fmt.Errorf("append factors: %w", err)
		}
		fmt.Printf("📦 Factors: %d rows → %s\n", n, screenFactors)
	}
	if screenThesis {
		writer := thesis.NewWriter(filepath.Join(cfg.OutputDir, "reports"), log)
		for _, cand := range result.Kept {
			path, err := writer.Write(cand, strat.Gates)
			if err != nil {
				return fmt.Errorf("write thesis for %s: %w", cand.Symbol, err)
			}
			fmt.Printf("📝 Thesis: %s → %s\n", cand.Symbol, path)
		}
	}

	// 7. Persist
	if screenPersist && repo != nil {
		if err := repo.SaveRun(ctx, *result); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		fmt.Println("💾 Run persisted to database")
	}

	return nil
}

// applyScreenOverrides layers explicitly set flags over the loaded
// strategy. Unset flags leave the file/default values alone, so
// --names-per-sector 0 is not a way to disable the cut.
func applyScreenOverrides(cmd *cobra.Command, strat *strategyconfig.Config) {
	flags := cmd.Flags()
	if flags.Changed("sectors") {
		strat.Universe.Sectors = screenSectors
	}
	if flags.Changed("exchanges") {
		strat.Universe.Exchanges = screenExchanges
	}
	if flags.Changed("names-per-sector") {
		strat.Universe.NamesPerSector = screenNames
	}
	if flags.Changed("pool-cap") {
		strat.Universe.PoolCap = screenPoolCap
	}
	if flags.Changed("screener") {
		strat.Screen.Screener = screenScreener
	}
	if flags.Changed("stack-cap") {
		strat.Screen.StackCap = screenStackCap
	}
	if flags.Changed("mos") {
		strat.Gates.MOSUpsideMin = screenMOS
	}
}
