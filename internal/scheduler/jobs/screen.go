package jobs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wonny/intrinsic/internal/export"
	"github.com/wonny/intrinsic/internal/pipeline"
	"github.com/wonny/intrinsic/internal/store"
	"github.com/wonny/intrinsic/internal/strategyconfig"
	"github.com/wonny/intrinsic/pkg/logger"
)

// Runner runs one screening pass for a strategy config.
type Runner interface {
	Run(ctx context.Context, cfg *strategyconfig.Config) (*pipeline.RunResult, error)
}

// ScreenJob runs the full screen on schedule and lands its artifacts
// ⭐ SSOT: 정기 스크리닝은 이 Job에서만
type ScreenJob struct {
	cfg      *strategyconfig.Config
	runner   Runner
	repo     *store.Repository // nil when persistence is disabled
	outDir   string
	schedule string
	logger   *logger.Logger
}

// NewScreenJob creates a new screen job
func NewScreenJob(cfg *strategyconfig.Config, runner Runner, repo *store.Repository, outDir, schedule string, log *logger.Logger) *ScreenJob {
	return &ScreenJob{
		cfg:      cfg,
		runner:   runner,
		repo:     repo,
		outDir:   outDir,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "screen"
}

// Schedule returns the cron expression from configuration
func (j *ScreenJob) Schedule() string {
	return j.schedule
}

// Run executes one screening pass and publishes every artifact: the JSON
// run record, the verdict summary, and the append-only pick/factor CSVs.
func (j *ScreenJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx, j.cfg)
	if err != nil {
		return fmt.Errorf("screen run: %w", err)
	}

	if _, err := export.WriteRunArtifact(j.outDir, *result); err != nil {
		return fmt.Errorf("write run artifact: %w", err)
	}
	if err := export.WriteSummary(filepath.Join(j.outDir, "summary.csv"), *result); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if _, err := export.AppendPicks(filepath.Join(j.outDir, "results.csv"), *result, j.cfg.Meta.StrategyID); err != nil {
		return fmt.Errorf("append picks: %w", err)
	}
	if _, err := export.AppendFactors(filepath.Join(j.outDir, "factors.csv"), *result); err != nil {
		return fmt.Errorf("append factors: %w", err)
	}

	if j.repo != nil {
		if err := j.repo.SaveRun(ctx, *result); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.Record.RunID,
		"scanned":   result.Record.Scanned,
		"evaluated": result.Record.Evaluated,
		"kept":      len(result.Kept),
		"truncated": result.Record.Truncated,
	}).Info("Scheduled screen completed")

	return nil
}
