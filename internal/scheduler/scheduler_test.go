package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/idxscreen/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failFor  int32 // fail this many runs first
	runs     atomic.Int32
	panics   bool
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := j.runs.Add(1)
	if j.panics {
		panic("kaboom")
	}
	if n <= j.failFor {
		return errors.New("transient")
	}
	return nil
}

func testOptions() Options {
	return Options{MaxRetries: 2, RetryDelay: time.Millisecond, JobTimeout: time.Second}
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop(), testOptions())

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 */10 * * * *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@every 1h"}))
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a spec"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := New(logger.Nop(), testOptions())
	job := &countingJob{name: "flaky", schedule: "@every 1h", failFor: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := New(logger.Nop(), testOptions())
	job := &countingJob{name: "broken", schedule: "@every 1h", failFor: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_RecoversPanic(t *testing.T) {
	s := New(logger.Nop(), Options{})
	require.NoError(t, s.AddJob(&countingJob{name: "panicky", schedule: "@every 1h", panics: true}))

	result, err := s.RunJob("panicky")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "kaboom")
}

func TestRunJob_Unknown(t *testing.T) {
	s := New(logger.Nop(), testOptions())
	_, err := s.RunJob("ghost")
	assert.Error(t, err)
	_, err = s.GetJobHistory("ghost")
	assert.Error(t, err)
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.Nop(), testOptions())
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@every 1h"}))
	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
	// name can be reused
	assert.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@every 1h"}))
}

func TestScheduledRun(t *testing.T) {
	s := New(logger.Nop(), testOptions())
	job := &countingJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	stats := s.GetJobStats()["tick"]
	assert.GreaterOrEqual(t, stats.TotalRuns, 1)
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.Latest(3), 3)
	assert.Empty(t, h.Latest(0))
	assert.Equal(t, 50, h.FailureCount())
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}
