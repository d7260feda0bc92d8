package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRunOnceReportsResult(t *testing.T) {
	var observed error
	runner := NewRunner("replicate", func(ctx context.Context) error {
		return errors.New("boom")
	}, RunnerConfig{OnResult: func(err error, _ time.Duration) { observed = err }})

	err := runner.RunOnce(context.Background())
	require.Error(t, err)
	assert.EqualError(t, observed, "boom")
}

func TestRunnerTicksUntilStopped(t *testing.T) {
	var runs int32
	runner := NewRunner("replicate", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, RunnerConfig{Interval: 10 * time.Millisecond, RunOnStart: true})

	runner.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	runner.Stop()

	after := atomic.LoadInt32(&runs)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs))
}

func TestRunnerFailureDoesNotStopLoop(t *testing.T) {
	var runs int32
	runner := NewRunner("replicate", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("replica down")
	}, RunnerConfig{Interval: 5 * time.Millisecond})

	runner.Start(context.Background())
	defer runner.Stop()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
}
