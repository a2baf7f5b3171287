package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/intrinsic/internal/api"
	"github.com/wonny/intrinsic/internal/api/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "결과 조회 API 서버 시작",
	Long: `스크리닝 결과를 제공하는 REST API 서버를 시작합니다.

DATABASE_URL이 설정되면 DB에서, 아니면 출력 디렉터리의 런 아티팩트
(latest.json)에서 결과를 읽습니다.

Endpoints:
  GET /health                   - Health check
  GET /api/v1/runs              - 최근 런 기록
  GET /api/v1/results/latest    - 최신 런 판정 전체
  GET /api/v1/results/{symbol}  - 종목별 판정 이력`,
	Example: `  intrinsic serve
  intrinsic serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Intrinsic Results API ===")

	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Optional persistence backend
	repo, closeDB, err := maybeRepo(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	if repo != nil {
		fmt.Println("💾 Serving results from database")
	} else {
		fmt.Printf("📦 Serving results from artifacts in %s\n", cfg.OutputDir)
	}

	// 3. Handler + router + server
	results := handlers.NewResultsHandler(repo, cfg.OutputDir, log)
	router := api.NewRouter(results, log)
	server := api.New(cfg, log, router)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET /health")
	fmt.Println("  GET /api/v1/runs")
	fmt.Println("  GET /api/v1/results/latest")
	fmt.Println("  GET /api/v1/results/{symbol}")
	fmt.Println("\nPress Ctrl+C to stop")

	// 4. Serve until interrupted
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
