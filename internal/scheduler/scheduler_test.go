package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	err      error
	runs     int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	return j.err
}

func newTestScheduler() *Scheduler {
	s := New(logger.New(&config.Config{Env: "test", LogLevel: "error"}))
	s.retryDelay = time.Millisecond
	return s
}

func waitForResults(t *testing.T, s *Scheduler, jobName string, want int) JobResult {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		history, err := s.GetJobHistory(jobName)
		if err == nil && history.Len() >= want {
			latest := history.GetLatestResults(1)
			return latest[0]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never recorded %d results", jobName, want)
	return JobResult{}
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "screen", schedule: "0 0 22 * * MON-FRI"}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Error("duplicate job registration should fail")
	}

	jobs := s.GetAllJobs()
	if len(jobs) != 1 || jobs[0] != "screen" {
		t.Errorf("jobs = %v", jobs)
	}
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler()

	if err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron line"}); err == nil {
		t.Error("invalid cron expression should fail")
	}
}

func TestRemoveJobUnschedules(t *testing.T) {
	s := newTestScheduler()
	if err := s.AddJob(&fakeJob{name: "screen", schedule: "0 0 22 * * MON-FRI"}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := s.RemoveJob("screen"); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	// 크론 엔트리도 함께 제거되어야 함
	if entries := s.cron.Entries(); len(entries) != 0 {
		t.Errorf("cron still holds %d entries", len(entries))
	}
	if err := s.RunJob("screen"); err == nil {
		t.Error("removed job should not be runnable")
	}
	if err := s.RemoveJob("screen"); err == nil {
		t.Error("removing twice should fail")
	}
}

func TestRunJobRecordsSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "screen", schedule: "@daily"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := s.RunJob("screen"); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	result := waitForResults(t, s, "screen", 1)
	if !result.Success || result.Error != "" {
		t.Errorf("result = %+v", result)
	}
	if got := atomic.LoadInt32(&job.runs); got != 1 {
		t.Errorf("runs = %d, want 1 (no retry on success)", got)
	}

	stats := s.GetJobStats()["screen"]
	if stats.TotalRuns != 1 || stats.SuccessCount != 1 || stats.SuccessRate != 1.0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastSuccess == nil {
		t.Error("stats missing last success time")
	}
}

func TestRunJobRetriesThenRecordsFailure(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", err: errors.New("vendor down")}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := s.RunJob("flaky"); err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	result := waitForResults(t, s, "flaky", 1)
	if result.Success || result.Error != "vendor down" {
		t.Errorf("result = %+v", result)
	}
	// 최초 시도 + 재시도 3회
	if got := atomic.LoadInt32(&job.runs); got != 4 {
		t.Errorf("runs = %d, want 4", got)
	}
}

func TestJobHistoryKeepsRecentResults(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyCap+10; i++ {
		h.AddResult(JobResult{JobName: "screen", Success: i%2 == 0})
	}

	if h.Len() != historyCap {
		t.Fatalf("history len = %d, want %d", h.Len(), historyCap)
	}
	if latest := h.GetLatestResults(3); len(latest) != 3 {
		t.Errorf("latest = %d results", len(latest))
	}
	if rate := h.GetSuccessRate(); rate != 0.5 {
		t.Errorf("success rate = %f", rate)
	}

	empty := &JobHistory{}
	if empty.GetSuccessRate() != 0.0 {
		t.Error("empty history should report zero success rate")
	}
	if len(empty.GetLatestResults(5)) != 0 {
		t.Error("empty history should return no results")
	}
}
