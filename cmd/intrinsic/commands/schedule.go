package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/intrinsic/internal/scheduler"
	"github.com/wonny/intrinsic/internal/scheduler/jobs"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 스크리닝 스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- screen: 스크리닝 전체 실행 (기본: 평일 22시, SCREEN_CRON)
- cache_cleanup: 만료 캐시 정리 (매일 6시)

Subcommands:
  start   - 스케줄러 데몬 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회`,
	Example: `  intrinsic schedule start
  intrinsic schedule run screen
  intrinsic schedule status`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 데몬 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runSchedulerDaemon,
	}

	scheduleListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listScheduledJobs,
	}

	scheduleRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runScheduledJob,
	}

	scheduleStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showScheduleStatus,
	}
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Intrinsic Scheduler ===")

	sched, closeDB, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeDB()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listScheduledJobs(cmd *cobra.Command, args []string) error {
	sched, closeDB, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeDB()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runScheduledJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, closeDB, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeDB()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started, waiting for it to finish (Ctrl+C to detach)")

	// The job runs on the scheduler's goroutine; poll the stats until a
	// result lands so the database stays open for the whole run.
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(500 * time.Millisecond):
		}

		stat, ok := sched.GetJobStats()[jobName]
		if !ok || stat.TotalRuns == 0 {
			continue
		}
		if stat.LastFailure != nil {
			return fmt.Errorf("job %s failed, see logs", jobName)
		}
		fmt.Printf("✅ %s finished\n", jobName)
		return nil
	}
}

func showScheduleStatus(cmd *cobra.Command, args []string) error {
	sched, closeDB, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeDB()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler(ctx context.Context) (*scheduler.Scheduler, func(), error) {
	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}

	// 2. Strategy config
	strat, err := loadStrategy(cfg)
	if err != nil {
		return nil, nil, err
	}

	// 3. Pipeline + optional persistence
	pipe := buildPipeline(cfg, log)
	repo, closeDB, err := maybeRepo(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// 4. Create scheduler and register jobs
	fundCache, overviewCache := caches(cfg, log)
	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewScreenJob(strat, pipe, repo, cfg.OutputDir, cfg.ScreenCron, log)); err != nil {
		closeDB()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewCacheCleanupJob(log, fundCache, overviewCache)); err != nil {
		closeDB()
		return nil, nil, err
	}

	return sched, closeDB, nil
}
