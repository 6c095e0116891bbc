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

func TestSchedulerRunsOnInterval(t *testing.T) {
	var runs int32
	s := NewIntervalScheduler("tick", 10*time.Millisecond, false, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, nil)
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSchedulerRunOnStart(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := NewIntervalScheduler("boot", time.Hour, true, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, nil)
	s.Start(context.Background())
	defer s.Stop()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run on start")
	}
}

func TestRunNowSkipsWhenBusy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	s := NewIntervalScheduler("busy", time.Hour, false, func(ctx context.Context) error {
		close(entered)
		<-release
		return errors.New("failed")
	}, nil)

	result := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		result <- err
	}()
	<-entered

	ran, err := s.RunNow(context.Background())
	assert.False(t, ran)
	assert.NoError(t, err)

	close(release)
	require.EqualError(t, <-result, "failed")
	_, lastErr, runs := s.Status()
	assert.EqualError(t, lastErr, "failed")
	assert.Equal(t, int64(1), runs)
}
