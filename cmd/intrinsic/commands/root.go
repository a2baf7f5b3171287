package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "intrinsic",
	Short: "Intrinsic - 미국 주식 가치 스크리닝 파이프라인",
	Long: `Intrinsic Unified CLI

섹터별 후보 발굴부터 펀더멘털 수집, DCF-lite 밸류에이션,
품질 게이트와 안전마진 판정까지 한 번에 도는 스크리너.

Usage:
  go run ./cmd/intrinsic [command]

Examples:
  go run ./cmd/intrinsic screen
  go run ./cmd/intrinsic evaluate LMT XOM
  go run ./cmd/intrinsic universe
  go run ./cmd/intrinsic serve
  go run ./cmd/intrinsic schedule start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy config file (YAML, default from STRATEGY_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
