package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentpoint/backend/internal/service"
)

// waitFor polls cond until it holds or the deadline passes. Timer tests need a
// little slack; a tight Sleep would be flaky under load.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestExpiryScheduler_FiresOnceAfterWindow(t *testing.T) {
	s := service.NewExpiryScheduler(20 * time.Millisecond)
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule(1, func(_ context.Context) { fired.Add(1) })

	assert.Equal(t, 1, s.Pending())
	waitFor(t, func() bool { return fired.Load() == 1 }, "timer did not fire")

	// Give a second firing a chance to happen; it must not.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, s.Pending(), "a fired timer discards itself")
}

func TestExpiryScheduler_DuplicateScheduleIsNoOp(t *testing.T) {
	s := service.NewExpiryScheduler(20 * time.Millisecond)
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule(1, func(_ context.Context) { fired.Add(1) })
	s.Schedule(1, func(_ context.Context) { fired.Add(1) })

	assert.Equal(t, 1, s.Pending())
	waitFor(t, func() bool { return fired.Load() >= 1 }, "timer did not fire")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "one reservation gets one check")
}

func TestExpiryScheduler_IndependentTimers(t *testing.T) {
	s := service.NewExpiryScheduler(20 * time.Millisecond)
	defer s.Stop()

	var mu sync.Mutex
	fired := map[int64]bool{}
	for _, id := range []int64{1, 2, 3} {
		id := id
		s.Schedule(id, func(_ context.Context) {
			mu.Lock()
			fired[id] = true
			mu.Unlock()
		})
	}

	assert.Equal(t, 3, s.Pending())
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 3
	}, "not all timers fired")
}

func TestExpiryScheduler_StopCancelsOutstanding(t *testing.T) {
	s := service.NewExpiryScheduler(30 * time.Millisecond)

	var fired atomic.Int32
	s.Schedule(1, func(_ context.Context) { fired.Add(1) })
	s.Stop()

	assert.Equal(t, 0, s.Pending())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "stopped timers must not fire")

	// Scheduling after Stop is rejected.
	s.Schedule(2, func(_ context.Context) { fired.Add(1) })
	assert.Equal(t, 0, s.Pending())
}

func TestExpiryScheduler_ScheduleRemaining(t *testing.T) {
	s := service.NewExpiryScheduler(time.Hour)
	defer s.Stop()

	// Window long since elapsed: fires immediately.
	var fired atomic.Int32
	s.ScheduleRemaining(1, time.Now().Add(-2*time.Hour), func(_ context.Context) { fired.Add(1) })
	waitFor(t, func() bool { return fired.Load() == 1 }, "elapsed window did not fire immediately")

	// Window mostly remaining: stays pending.
	s.ScheduleRemaining(2, time.Now(), func(_ context.Context) { fired.Add(1) })
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, int32(1), fired.Load())
}

func TestExpiryScheduler_CallbackGetsDeadline(t *testing.T) {
	s := service.NewExpiryScheduler(time.Millisecond)
	defer s.Stop()

	done := make(chan struct{})
	var hasDeadline bool
	s.Schedule(1, func(ctx context.Context) {
		_, hasDeadline = ctx.Deadline()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	require.True(t, hasDeadline, "timer callbacks must run under a bounded context")
}
