package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/intrinsic/internal/gate"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/internal/pipeline"
	"github.com/wonny/intrinsic/internal/thesis"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <symbol> [symbol...]",
	Short: "지정 종목만 평가 (유니버스 탐색 생략)",
	Long: `지정한 심볼들을 재무제표 수집부터 게이트 판정까지 평가합니다.

섹터 탐색과 사전 스크리닝을 건너뛰므로 종목 단위 확인에 적합합니다.`,
	Example: `  # 두 종목 평가
  intrinsic evaluate LMT XOM

  # 평가 후 통과 종목 투자 메모 생성
  intrinsic evaluate LMT --thesis`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

var evaluateThesis bool

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateThesis, "thesis", false, "통과 종목별 투자 메모 생성")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	// 2. Strategy config
	strat, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(args))
	for _, arg := range args {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(arg)))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Evaluate
	pipe := buildPipeline(cfg, log)
	result, err := pipe.EvaluateSymbols(ctx, strat, symbols)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	// 4. Per-symbol detail
	for _, cand := range result.Candidates {
		printCandidate(cand)
	}

	if result.Record.Truncated {
		fmt.Println()
		fmt.Printf("⚠️  Vendor throttled at %s, remaining symbols were not evaluated\n", result.Record.TruncatedAt)
	}

	fmt.Println()
	fmt.Printf("✅ Evaluated %d of %d | passed %d\n",
		result.Record.Evaluated, result.Record.Scanned, result.Record.Passed)

	if evaluateThesis {
		writer := thesis.NewWriter(filepath.Join(cfg.OutputDir, "reports"), log)
		for _, cand := range result.Kept {
			path, err := writer.Write(cand, strat.Gates)
			if err != nil {
				return fmt.Errorf("write thesis for %s: %w", cand.Symbol, err)
			}
			fmt.Printf("📝 Thesis: %s → %s\n", cand.Symbol, path)
		}
	}

	return nil
}

// printCandidate prints one evaluation trail in the detail layout.
func printCandidate(cand pipeline.Candidate) {
	fmt.Println()
	PrintSeparator()

	name := cand.Snapshot.Name
	if name == "" {
		name = cand.Symbol
	}
	fmt.Printf("📈 %s (%s)", name, cand.Symbol)
	if cand.Sector != "" {
		fmt.Printf("  [%s / %s]", cand.Sector, orDash(cand.Snapshot.Industry))
	}
	fmt.Println()

	if cand.Outcome != outcome.Success.String() {
		fmt.Printf("   ⚠️  %s", cand.Outcome)
		if cand.Note != "" {
			fmt.Printf(": %s", cand.Note)
		}
		fmt.Println()
		return
	}

	fmt.Printf("   ROIC %s | ROE %s | FCF margin %s | PE %s\n",
		pctCellRatio(cand.Snapshot.ROIC), pctCellRatio(cand.Snapshot.ROE),
		pctCellRatio(cand.Snapshot.FCFMargin), numCell(cand.Snapshot.PE))
	fmt.Printf("   Price %s (%s) | Fair/share %s | Upside %s\n",
		numCell(cand.Snapshot.Price), orDash(cand.PriceSource),
		numCell(cand.Valuation.FairValuePerShare), pctCell(cand.Valuation.UpsidePercent))

	printVerdict(cand.Verdict)
}

func printVerdict(v gate.Verdict) {
	if v.Pass {
		fmt.Printf("   ✅ PASS (%d/%d)\n", v.Passed, v.Evaluated)
		return
	}
	fmt.Printf("   ❌ FAIL (%d/%d)\n", v.Passed, v.Evaluated)
	for _, reason := range v.Reasons {
		fmt.Printf("      - %s\n", reason)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// pctCellRatio renders a 0..1 ratio as a percentage cell.
func pctCellRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
