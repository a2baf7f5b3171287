package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "벤더 응답 캐시 관리",
	Long: `디스크 캐시(재무제표, 기업 프로필)를 조회하고 정리합니다.

캐시를 비우면 다음 실행이 벤더 쿼터를 그만큼 소모하므로 주의하세요.`,
	Example: `  intrinsic cache stats
  intrinsic cache prune
  intrinsic cache clear`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "캐시 현황 출력",
	RunE:  runCacheStats,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "TTL 만료 엔트리만 삭제",
	RunE:  runCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "캐시 전체 삭제",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	fund, overviews := caches(cfg, log)

	fmt.Println("📊 Cache Stats")
	PrintSeparator()

	fundEntries, fundBytes := fund.Stats()
	ovEntries, ovBytes := overviews.Stats()
	fmt.Printf("  %-14s %6d entries %10s (TTL %s)\n", "fundamentals", fundEntries, byteSize(fundBytes), cfg.Cache.FundamentalsTTL)
	fmt.Printf("  %-14s %6d entries %10s (TTL %s)\n", "overviews", ovEntries, byteSize(ovBytes), cfg.Cache.OverviewTTL)
	fmt.Printf("\n  dir: %s\n", cfg.Cache.Dir)
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	fund, overviews := caches(cfg, log)

	removed := fund.PruneExpired() + overviews.PruneExpired()
	fmt.Printf("✅ Pruned %d expired entries\n", removed)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	fund, overviews := caches(cfg, log)

	nFund, err := fund.Clear()
	if err != nil {
		return fmt.Errorf("clear fundamentals cache: %w", err)
	}
	nOv, err := overviews.Clear()
	if err != nil {
		return fmt.Errorf("clear overview cache: %w", err)
	}

	fmt.Printf("✅ Cleared %d entries\n", nFund+nOv)
	fmt.Println("💡 다음 스크리닝은 벤더 호출을 처음부터 다시 수행합니다")
	return nil
}

func byteSize(n int64) string {
	const kb = 1024
	switch {
	case n >= kb*kb:
		return fmt.Sprintf("%.1f MB", float64(n)/(kb*kb))
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
