// Package export lands run artifacts on disk: append-only CSVs for picks
// and factor rows, a per-run verdict summary, and JSON run records the
// serve command can answer from when no database is configured.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/internal/pipeline"
)

// ErrNoRuns signals that the artifact directory holds no run yet.
var ErrNoRuns = errors.New("no run artifacts")

const latestArtifact = "latest.json"

// AppendPicks appends one row per kept name to the CSV at path, writing
// the header only when the file is new. The metric column carries the
// upside percent that put the name over the bar. Returns rows written.
func AppendPicks(path string, result pipeline.RunResult, source string) (int, error) {
	if len(result.Kept) == 0 {
		return 0, nil
	}

	ts := result.Record.StartedAt.UTC().Format(time.RFC3339)
	rows := make([][]string, 0, len(result.Kept))
	for _, cand := range result.Kept {
		value := 0.0
		if cand.Valuation.UpsidePercent != nil {
			value = *cand.Valuation.UpsidePercent
		}
		rows = append(rows, []string{ts, cand.Sector, cand.Symbol, strconv.FormatFloat(value, 'f', 4, 64), source})
	}
	return len(rows), appendCSV(path, []string{"timestamp", "sector", "symbol", "metric_value", "source"}, rows)
}

// factorHeaders is the fixed column order for factor rows. Every run
// writes every column, so append-only files stay aligned across runs.
var factorHeaders = []string{
	"timestamp", "sector", "symbol", "verdict", "summary_score",
	"price", "market_cap", "fair_value_ps", "mos_upside_pct", "reasons",
}

// AppendFactors appends one row per evaluated candidate to the CSV at
// path, writing the header only when the file is new. Metrics the
// candidate lacks come out as empty cells. Returns rows written.
func AppendFactors(path string, result pipeline.RunResult) (int, error) {
	ts := result.Record.StartedAt.UTC().Format(time.RFC3339)

	rows := make([][]string, 0, len(result.Candidates))
	for _, cand := range result.Candidates {
		if cand.Outcome != outcome.Success.String() {
			continue
		}
		m := factorRow(ts, cand)
		row := make([]string, len(factorHeaders))
		for i, k := range factorHeaders {
			row[i] = m[k]
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows), appendCSV(path, factorHeaders, rows)
}

func factorRow(ts string, cand pipeline.Candidate) map[string]string {
	row := map[string]string{
		"timestamp":     ts,
		"sector":        cand.Sector,
		"symbol":        cand.Symbol,
		"verdict":       passFail(cand.Verdict.Pass),
		"summary_score": fmt.Sprintf("%d/%d", cand.Verdict.Passed, cand.Verdict.Evaluated),
	}
	if len(cand.Verdict.Reasons) > 0 {
		row["reasons"] = strings.Join(cand.Verdict.Reasons, "; ")
	}
	putFloat(row, "price", cand.Snapshot.Price)
	putFloat(row, "market_cap", cand.Snapshot.MarketCap)
	putFloat(row, "fair_value_ps", cand.Valuation.FairValuePerShare)
	putFloat(row, "mos_upside_pct", cand.Valuation.UpsidePercent)
	return row
}

// WriteSummary writes the verdict table for one run, every candidate
// included, replacing whatever an earlier run left at path.
func WriteSummary(path string, result pipeline.RunResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"run_id", "timestamp", "sector", "symbol", "outcome", "note",
		"price", "fair_value_ps", "upside_pct", "quality", "mos", "verdict", "reasons",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	ts := result.Record.StartedAt.UTC().Format(time.RFC3339)
	for _, cand := range result.Candidates {
		row := []string{
			result.Record.RunID, ts, cand.Sector, cand.Symbol, cand.Outcome, cand.Note,
			floatCell(cand.Snapshot.Price), floatCell(cand.Valuation.FairValuePerShare),
			floatCell(cand.Valuation.UpsidePercent), "", "", "", "",
		}
		if cand.Outcome == outcome.Success.String() {
			row[9] = passFail(cand.Quality.Pass)
			row[10] = passFail(cand.MOS.Pass)
			row[11] = passFail(cand.Verdict.Pass)
			row[12] = strings.Join(cand.Verdict.Reasons, "; ")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteRunArtifact stores the full run result as JSON under dir, named by
// start time and run ID so a directory listing sorts oldest to newest,
// and refreshes latest.json. Returns the artifact path.
func WriteRunArtifact(dir string, result pipeline.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run: %w", err)
	}

	stamp := result.Record.StartedAt.UTC().Format("2006-01-02T15-04-05")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", stamp, result.Record.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write run artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, latestArtifact), data, 0o644); err != nil {
		return "", fmt.Errorf("write latest artifact: %w", err)
	}
	return path, nil
}

// LatestRunArtifact loads the most recent run stored under dir.
func LatestRunArtifact(dir string) (*pipeline.RunResult, error) {
	data, err := os.ReadFile(filepath.Join(dir, latestArtifact))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("read latest artifact: %w", err)
	}

	var result pipeline.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode latest artifact: %w", err)
	}
	return &result, nil
}

// RunArtifacts loads up to limit stored runs, newest first.
func RunArtifacts(dir string, limit int) ([]pipeline.RunResult, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == latestArtifact || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	results := make([]pipeline.RunResult, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", name, err)
		}
		var result pipeline.RunResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode artifact %s: %w", name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// appendCSV opens path for append, creating parents and writing the
// header first when the file did not exist yet.
func appendCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	_, statErr := os.Stat(path)
	newFile := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func passFail(pass bool) string {
	if pass {
		return "pass"
	}
	return "fail"
}

func putFloat(row map[string]string, key string, v *float64) {
	if v == nil {
		return
	}
	row[key] = strconv.FormatFloat(*v, 'f', 4, 64)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
