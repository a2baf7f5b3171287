// Package store persists screening runs to PostgreSQL. Persistence is
// optional: callers construct a Repository only when DATABASE_URL is set,
// and the rest of the program runs from disk artifacts without it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/intrinsic/internal/pipeline"
)

// ErrNotFound signals an empty result set for a lookup.
var ErrNotFound = errors.New("not found")

// Repository handles run result persistence
// ⭐ SSOT: 스크리닝 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new results repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Verdict is one stored per-symbol evaluation with its run context.
type Verdict struct {
	RunID     string             `json:"run_id"`
	StartedAt time.Time          `json:"started_at"`
	Candidate pipeline.Candidate `json:"candidate"`
}

var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS screening`,
	`CREATE TABLE IF NOT EXISTS screening.runs (
		run_id       TEXT PRIMARY KEY,
		strategy_id  TEXT NOT NULL,
		config_hash  TEXT NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL,
		scanned      INT NOT NULL,
		evaluated    INT NOT NULL,
		passed       INT NOT NULL,
		skipped      INT NOT NULL,
		truncated    BOOLEAN NOT NULL,
		truncated_at TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS screening.verdicts (
		run_id     TEXT NOT NULL REFERENCES screening.runs(run_id) ON DELETE CASCADE,
		symbol     TEXT NOT NULL,
		sector     TEXT NOT NULL,
		outcome    TEXT NOT NULL,
		passed     BOOLEAN NOT NULL,
		kept       BOOLEAN NOT NULL,
		upside_pct DOUBLE PRECISION,
		candidate  JSONB NOT NULL,
		PRIMARY KEY (run_id, symbol)
	)`,
	`CREATE INDEX IF NOT EXISTS verdicts_symbol_idx ON screening.verdicts (symbol)`,
}

// EnsureSchema creates the screening tables when they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores the run record and every per-symbol verdict in one
// transaction. Saving the same run again replaces its verdict rows.
func (r *Repository) SaveRun(ctx context.Context, result pipeline.RunResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec := result.Record
	runQuery := `
		INSERT INTO screening.runs (
			run_id, strategy_id, config_hash, started_at, finished_at,
			scanned, evaluated, passed, skipped, truncated, truncated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			scanned = EXCLUDED.scanned,
			evaluated = EXCLUDED.evaluated,
			passed = EXCLUDED.passed,
			skipped = EXCLUDED.skipped,
			truncated = EXCLUDED.truncated,
			truncated_at = EXCLUDED.truncated_at,
			created_at = NOW()
	`
	_, err = tx.Exec(ctx, runQuery,
		rec.RunID, rec.StrategyID, rec.ConfigHash, rec.StartedAt, rec.FinishedAt,
		rec.Scanned, rec.Evaluated, rec.Passed, rec.Skipped, rec.Truncated, rec.TruncatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM screening.verdicts WHERE run_id = $1", rec.RunID); err != nil {
		return fmt.Errorf("failed to delete old verdicts: %w", err)
	}

	// A symbol pooled under two sectors shows up twice in one run; the
	// upsert keeps the later evaluation instead of failing the save.
	kept := keptSet(result)
	verdictQuery := `
		INSERT INTO screening.verdicts (
			run_id, symbol, sector, outcome, passed, kept, upside_pct, candidate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, symbol) DO UPDATE SET
			sector = EXCLUDED.sector,
			outcome = EXCLUDED.outcome,
			passed = EXCLUDED.passed,
			kept = EXCLUDED.kept,
			upside_pct = EXCLUDED.upside_pct,
			candidate = EXCLUDED.candidate
	`
	for _, cand := range result.Candidates {
		candJSON, err := json.Marshal(cand)
		if err != nil {
			return fmt.Errorf("failed to marshal candidate %s: %w", cand.Symbol, err)
		}
		_, err = tx.Exec(ctx, verdictQuery,
			rec.RunID, cand.Symbol, cand.Sector, cand.Outcome,
			cand.Verdict.Pass, kept[cand.Symbol], cand.Valuation.UpsidePercent, candJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert verdict %s: %w", cand.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecentRuns returns the latest run records, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]pipeline.RunRecord, error) {
	query := `
		SELECT run_id, strategy_id, config_hash, started_at, finished_at,
		       scanned, evaluated, passed, skipped, truncated, truncated_at
		FROM screening.runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	records := make([]pipeline.RunRecord, 0)
	for rows.Next() {
		var rec pipeline.RunRecord
		err := rows.Scan(
			&rec.RunID, &rec.StrategyID, &rec.ConfigHash, &rec.StartedAt, &rec.FinishedAt,
			&rec.Scanned, &rec.Evaluated, &rec.Passed, &rec.Skipped, &rec.Truncated, &rec.TruncatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return records, nil
}

// LatestVerdicts returns every verdict of the most recent run, kept names first.
func (r *Repository) LatestVerdicts(ctx context.Context) ([]Verdict, error) {
	var runID string
	var startedAt time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT run_id, started_at FROM screening.runs ORDER BY started_at DESC LIMIT 1",
	).Scan(&runID, &startedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}

	query := `
		SELECT candidate
		FROM screening.verdicts
		WHERE run_id = $1
		ORDER BY kept DESC, upside_pct DESC NULLS LAST, symbol ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := make([]Verdict, 0)
	for rows.Next() {
		v := Verdict{RunID: runID, StartedAt: startedAt}
		var candJSON []byte
		if err := rows.Scan(&candJSON); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		if err := json.Unmarshal(candJSON, &v.Candidate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidate: %w", err)
		}
		verdicts = append(verdicts, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdicts: %w", err)
	}

	return verdicts, nil
}

// SymbolHistory returns stored verdicts for one symbol across runs, newest first.
func (r *Repository) SymbolHistory(ctx context.Context, symbol string, limit int) ([]Verdict, error) {
	query := `
		SELECT v.run_id, r.started_at, v.candidate
		FROM screening.verdicts v
		JOIN screening.runs r ON r.run_id = v.run_id
		WHERE v.symbol = $1
		ORDER BY r.started_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol history: %w", err)
	}
	defer rows.Close()

	verdicts := make([]Verdict, 0)
	for rows.Next() {
		var v Verdict
		var candJSON []byte
		if err := rows.Scan(&v.RunID, &v.StartedAt, &candJSON); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		if err := json.Unmarshal(candJSON, &v.Candidate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidate: %w", err)
		}
		verdicts = append(verdicts, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdicts: %w", err)
	}

	if len(verdicts) == 0 {
		return nil, ErrNotFound
	}

	return verdicts, nil
}

func keptSet(result pipeline.RunResult) map[string]bool {
	kept := make(map[string]bool, len(result.Kept))
	for _, cand := range result.Kept {
		kept[cand.Symbol] = true
	}
	return kept
}
