package debounce

import (
	"sync"
	"time"
)

// Scheduler coalesces bursts of work per key. Each key holds at most one
// pending delayed task; scheduling a new task for a key cancels and replaces
// the prior one, so the task only fires after a full quiet period with no
// further schedule calls.
type Scheduler struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewScheduler creates a scheduler with the given quiet period
func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{
		delay:   delay,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule installs fn to run after the quiet period. Any task already
// pending for the key is cancelled first; tasks never stack.
func (s *Scheduler) Schedule(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if timer, ok := s.pending[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		// A replacement may have been installed between the timer firing and
		// acquiring the lock; only the current entry runs and clears itself.
		current := s.pending[key] == timer && !s.stopped
		if current {
			delete(s.pending, key)
		}
		s.mu.Unlock()

		if current {
			fn()
		}
	})
	s.pending[key] = timer
}

// Cancel drops any pending task for the key
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[key]; ok {
		timer.Stop()
		delete(s.pending, key)
	}
}

// Pending returns the number of keys with an outstanding task
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending task and rejects further scheduling
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, timer := range s.pending {
		timer.Stop()
		delete(s.pending, key)
	}
}
