package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "섹터별 후보 풀 구성 (평가 없이 탐색만)",
	Long: `상장 목록을 받아 섹터 키워드 매칭으로 후보 풀을 구성합니다.

시드 종목이 먼저, 센서스 매칭 종목이 그 뒤에 옵니다. 평가는 하지
않으므로 벤더 호출은 상장 목록과 프로필 조회뿐입니다.`,
	Example: `  intrinsic universe
  intrinsic universe --sectors Defence,Energy --pool-cap 100`,
	RunE: runUniverse,
}

var (
	universeSectors []string
	universePoolCap int
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.Flags().StringSliceVar(&universeSectors, "sectors", nil, "탐색할 섹터 목록 (기본: 전략 설정)")
	universeCmd.Flags().IntVar(&universePoolCap, "pool-cap", 0, "섹터당 후보 풀 상한")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	// 2. Strategy config with flag overrides
	strat, err := loadStrategy(cfg)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("sectors") {
		strat.Universe.Sectors = universeSectors
	}
	if cmd.Flags().Changed("pool-cap") {
		strat.Universe.PoolCap = universePoolCap
	}

	fmt.Printf("🔎 Sectors: %s | exchanges: %s\n",
		strings.Join(strat.Universe.Sectors, ", "), strings.Join(strat.Universe.Exchanges, ", "))
	fmt.Println()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Discover
	builder := buildUniverse(cfg, log)
	pools, err := builder.Discover(ctx, strat.Universe)
	if err != nil {
		return fmt.Errorf("discover universe: %w", err)
	}

	// 4. Print pools, sector order fixed
	sectors := make([]string, 0, len(pools))
	for sector := range pools {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	total := 0
	for _, sector := range sectors {
		pool := pools[sector]
		total += len(pool)
		fmt.Printf("📊 %s (%d)\n", sector, len(pool))
		if len(pool) == 0 {
			fmt.Println("   (no matches)")
			continue
		}
		fmt.Printf("   %s\n", strings.Join(pool, " "))
	}

	fmt.Println()
	fmt.Printf("✅ %d candidates across %d sectors\n", total, len(sectors))
	return nil
}
