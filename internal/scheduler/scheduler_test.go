package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsAndStops(t *testing.T) {
	var runs int64
	sched := New("@every 1s", func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	err := sched.Start(ctx)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(2))
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	sched := New("not-a-cron-spec", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sched.Start(ctx)
	assert.Error(t, err)
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	var running, overlapped int64
	sched := New("@every 1s", func(ctx context.Context) error {
		if !atomic.CompareAndSwapInt64(&running, 0, 1) {
			atomic.AddInt64(&overlapped, 1)
		}
		time.Sleep(1500 * time.Millisecond)
		atomic.StoreInt64(&running, 0)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	_ = sched.Start(ctx)
	assert.Zero(t, atomic.LoadInt64(&overlapped), "overlapping firings must be skipped")
}
