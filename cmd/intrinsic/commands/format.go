package commands

import (
	"fmt"
	"time"

	"github.com/wonny/intrinsic/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// printRunSummary prints the run record and the kept-picks table
func printRunSummary(result pipeline.RunResult, elapsed time.Duration) {
	rec := result.Record

	fmt.Println()
	fmt.Printf("✅ Run %.8s finished in %s\n", rec.RunID, elapsed.Round(time.Millisecond))
	fmt.Printf("   scanned %d | evaluated %d | passed %d | skipped %d\n",
		rec.Scanned, rec.Evaluated, rec.Passed, rec.Skipped)

	if rec.Truncated {
		fmt.Printf("⚠️  Vendor throttled at %s, results are partial\n", rec.TruncatedAt)
	}

	if len(result.Kept) == 0 {
		fmt.Println()
		fmt.Println("No names cleared the gates.")
		return
	}

	fmt.Println()
	fmt.Println("🏆 Picks")
	fmt.Printf("  %-10s %-7s %10s %12s %10s\n", "Sector", "Symbol", "Upside", "Fair/Share", "Price")
	PrintSeparator()
	for _, cand := range result.Kept {
		fmt.Printf("  %-10s %-7s %10s %12s %10s\n",
			cand.Sector, cand.Symbol,
			pctCell(cand.Valuation.UpsidePercent),
			numCell(cand.Valuation.FairValuePerShare),
			numCell(cand.Snapshot.Price))
	}
}

func pctCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", *v)
}

func numCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
