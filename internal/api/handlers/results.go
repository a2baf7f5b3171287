package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/intrinsic/internal/export"
	"github.com/wonny/intrinsic/internal/pipeline"
	"github.com/wonny/intrinsic/internal/store"
	"github.com/wonny/intrinsic/pkg/logger"
)

// ResultsHandler serves screening results, reading from the database when
// persistence is configured and from disk artifacts otherwise.
// ⭐ SSOT: 결과 조회 API 핸들러는 이 구조체에서만
type ResultsHandler struct {
	repo   *store.Repository // nil when persistence is disabled
	outDir string
	logger *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(repo *store.Repository, outDir string, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		repo:   repo,
		outDir: outDir,
		logger: log,
	}
}

// ListRuns returns recent run records, newest first
// GET /api/v1/runs?limit=20
func (h *ResultsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryLimit(r, 20, 100)

	if h.repo != nil {
		runs, err := h.repo.RecentRuns(ctx, limit)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list runs")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
			return
		}
		respondJSON(w, http.StatusOK, runs)
		return
	}

	results, err := export.RunArtifacts(h.outDir, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read run artifacts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	records := make([]pipeline.RunRecord, 0, len(results))
	for _, res := range results {
		records = append(records, res.Record)
	}
	respondJSON(w, http.StatusOK, records)
}

// LatestResults returns every verdict of the most recent run
// GET /api/v1/results/latest
func (h *ResultsHandler) LatestResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo != nil {
		verdicts, err := h.repo.LatestVerdicts(ctx)
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No runs recorded yet")
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("Failed to load latest verdicts")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve results")
			return
		}
		respondJSON(w, http.StatusOK, verdicts)
		return
	}

	result, err := export.LatestRunArtifact(h.outDir)
	if errors.Is(err, export.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "No runs recorded yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read latest artifact")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve results")
		return
	}
	respondJSON(w, http.StatusOK, artifactVerdicts(result, ""))
}

// SymbolResults returns stored verdicts for one symbol, newest first
// GET /api/v1/results/{symbol}?limit=10
func (h *ResultsHandler) SymbolResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	limit := queryLimit(r, 10, 100)

	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if h.repo != nil {
		verdicts, err := h.repo.SymbolHistory(ctx, symbol, limit)
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No results for "+symbol)
			return
		}
		if err != nil {
			h.logger.WithError(err).Error("Failed to load symbol history")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve results")
			return
		}
		respondJSON(w, http.StatusOK, verdicts)
		return
	}

	result, err := export.LatestRunArtifact(h.outDir)
	if errors.Is(err, export.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "No results for "+symbol)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read latest artifact")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve results")
		return
	}

	verdicts := artifactVerdicts(result, symbol)
	if len(verdicts) == 0 {
		respondError(w, http.StatusNotFound, "No results for "+symbol)
		return
	}
	respondJSON(w, http.StatusOK, verdicts)
}

// artifactVerdicts reshapes a disk artifact into the store's verdict rows
// so both backends answer with the same JSON.
func artifactVerdicts(result *pipeline.RunResult, symbol string) []store.Verdict {
	verdicts := make([]store.Verdict, 0, len(result.Candidates))
	for _, cand := range result.Candidates {
		if symbol != "" && cand.Symbol != symbol {
			continue
		}
		verdicts = append(verdicts, store.Verdict{
			RunID:     result.Record.RunID,
			StartedAt: result.Record.StartedAt,
			Candidate: cand,
		})
	}
	return verdicts
}

func queryLimit(r *http.Request, def, ceiling int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
