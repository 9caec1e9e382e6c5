package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dart-digest/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failN    int32 // 처음 failN 번 실패
	err      error
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failN {
		if j.err != nil {
			return j.err
		}
		return fmt.Errorf("attempt %d failed", n)
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop(), time.UTC).WithRetry(2, time.Millisecond)
}

func TestAddJob_Duplicate(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 10 18 * * 1-5"}))

	err := s.AddJob(&countingJob{name: "a", schedule: "0 10 18 * * 1-5"})
	assert.Error(t, err)
	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a cron"}))
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "digest", schedule: "@daily", failN: 1}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(2), job.calls.Load())
	history, err := s.GetJobHistory("digest")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 2, history.Results[0].Attempts)
	assert.Equal(t, 1.0, history.GetSuccessRate())
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "digest", schedule: "@daily", failN: 10}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(3), job.calls.Load())
	history, err := s.GetJobHistory("digest")
	require.NoError(t, err)
	assert.Equal(t, 1, history.FailureCount())
	assert.Equal(t, 3, history.Results[0].Attempts)
	assert.Equal(t, "attempt 3 failed", history.Results[0].Error)

	stats := s.GetJobStats()["digest"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_NoRetry(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "digest", schedule: "@daily", failN: 10, err: fmt.Errorf("save failed: %w", ErrNoRetry)}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(1), job.calls.Load())
	history, _ := s.GetJobHistory("digest")
	assert.True(t, errors.Is(job.err, ErrNoRetry))
	assert.False(t, history.Results[0].Success)
}

func TestRunJob_Async(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "digest", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("digest"))
	assert.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("digest")
		return len(h.Results) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Error(t, s.RunJob("missing"))
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))

	next, err := s.NextRun("a")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	_, err = s.NextRun("a")
	assert.Error(t, err)
	assert.Error(t, s.RemoveJob("a"))
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.001)
	assert.Equal(t, 50, h.FailureCount())
	// i=119 failed, i=118 succeeded
	require.NotNil(t, h.lastWhere(true))
	require.NotNil(t, h.lastWhere(false))
}

type deadlineJob struct {
	deadline time.Time
	ok       bool
}

func (j *deadlineJob) Name() string     { return "deadline" }
func (j *deadlineJob) Schedule() string { return "@daily" }

func (j *deadlineJob) Run(ctx context.Context) error {
	j.deadline, j.ok = ctx.Deadline()
	return nil
}

func TestRunJob_AttemptTimeout(t *testing.T) {
	s := newTestScheduler().WithJobTimeout(time.Minute)
	job := &deadlineJob{}
	require.NoError(t, s.AddJob(job))

	start := time.Now()
	s.runJob(job)

	require.True(t, job.ok)
	assert.WithinDuration(t, start.Add(time.Minute), job.deadline, 5*time.Second)
}
