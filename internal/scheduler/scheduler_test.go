package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	calls    int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop(), metrics.New(), time.UTC).WithRetry(2, time.Millisecond)
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 */5 10-18 * * 1-5"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}), "duplicate")
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "every tuesday"}), "bad schedule")
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RunNowRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "refresh", schedule: "@every 1h", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow(context.Background(), "refresh")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("refresh")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestScheduler_RunNowExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "refresh", schedule: "@every 1h", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow(context.Background(), "refresh")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Contains(t, result.Error, "upstream unavailable")

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestScheduler_RunNowCancelled(t *testing.T) {
	s := New(logger.NewNop(), nil, time.UTC).WithRetry(5, time.Hour)
	require.NoError(t, s.AddJob(&fakeJob{name: "slow", schedule: "@every 1h", failures: 10}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := s.RunNow(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts, "no retry after cancellation")
}

func TestScheduler_RunNowUnknown(t *testing.T) {
	_, err := newTestScheduler().RunNow(context.Background(), "nope")
	assert.Error(t, err)
}

func TestScheduler_StartRunsJobs(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	stats := s.GetJobStats()["tick"]
	assert.GreaterOrEqual(t, stats.TotalRuns, 1)
	assert.NotNil(t, stats.NextRun)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Zero(t, h.SuccessRate())
	assert.Empty(t, h.Latest(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%4 != 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.Latest(3), 3)
	assert.InDelta(t, 0.75, h.SuccessRate(), 0.01)
}
