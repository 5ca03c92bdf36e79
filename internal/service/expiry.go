package service

import (
	"context"
	"sync"
	"time"
)

// expireCallTimeout bounds the database work a firing timer may do. Timers
// run detached from any request, so they get a fresh context with this limit.
const expireCallTimeout = 30 * time.Second

// ExpiryScheduler arms one in-process timer per reservation. Each timer fires
// exactly once after the configured window, runs its callback, and discards
// itself. Timers are independent; any number may be outstanding concurrently.
//
// Timers live in process memory only and do not survive a restart. The
// stored reservation_ts makes recovery possible: see
// SessionService.RearmPending, which re-arms the remaining window at startup.
type ExpiryScheduler struct {
	window time.Duration

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	stopped bool
}

// NewExpiryScheduler constructs a scheduler with the given expiry window.
func NewExpiryScheduler(window time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{
		window: window,
		timers: map[int64]*time.Timer{},
	}
}

// Schedule arms a timer for the full window. Scheduling an id that already
// has an outstanding timer is a no-op: a reservation gets one check.
func (s *ExpiryScheduler) Schedule(sessionID int64, fire func(ctx context.Context)) {
	s.schedule(sessionID, s.window, fire)
}

// ScheduleRemaining arms a timer for what is left of the window measured from
// reservedAt. A window that already elapsed fires immediately (delay zero).
func (s *ExpiryScheduler) ScheduleRemaining(sessionID int64, reservedAt time.Time, fire func(ctx context.Context)) {
	remaining := s.window - time.Since(reservedAt)
	if remaining < 0 {
		remaining = 0
	}
	s.schedule(sessionID, remaining, fire)
}

func (s *ExpiryScheduler) schedule(sessionID int64, delay time.Duration, fire func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if _, exists := s.timers[sessionID]; exists {
		return
	}

	s.timers[sessionID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, sessionID)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), expireCallTimeout)
		defer cancel()
		fire(ctx)
	})
}

// Stop cancels all outstanding timers and rejects further scheduling.
// Callbacks already running are not interrupted. Call during shutdown.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of outstanding timers. Used by tests and the
// shutdown log line.
func (s *ExpiryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// compile-time check: ExpiryScheduler must satisfy Scheduler.
var _ Scheduler = (*ExpiryScheduler)(nil)
