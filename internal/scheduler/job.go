package scheduler

import (
	"context"
	"sync"
	"time"
)

// historyCap bounds the per-job result ring.
const historyCap = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field included
	// Examples: "0 0 22 * * MON-FRI" (weekdays at 10 PM)
	//           "@daily", "@hourly"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores recent results for one job. It carries its own lock
// so callers holding the pointer stay safe while the scheduler's run
// goroutine appends.
type JobHistory struct {
	mu      sync.RWMutex
	results []JobResult
}

// AddResult appends a result, dropping the oldest past the cap
func (h *JobHistory) AddResult(result JobResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	if len(h.results) > historyCap {
		h.results = h.results[len(h.results)-historyCap:]
	}
}

// Len returns the number of recorded results
func (h *JobHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.results)
}

// GetLatestResults returns a copy of the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.results) {
		n = len(h.results)
	}
	if n <= 0 {
		return []JobResult{}
	}

	out := make([]JobResult, n)
	copy(out, h.results[len(h.results)-n:])
	return out
}

// GetFailedResults returns all failed results
func (h *JobHistory) GetFailedResults() []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	failed := make([]JobResult, 0)
	for _, result := range h.results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.results) == 0 {
		return 0.0
	}

	successCount := 0
	for _, result := range h.results {
		if result.Success {
			successCount++
		}
	}

	return float64(successCount) / float64(len(h.results))
}
