package engine

import "sync/atomic"

// sweepLock provides non-blocking lock semantics using atomic operations,
// so a sweep request arriving while one is running is rejected immediately
// instead of queueing.
type sweepLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *sweepLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *sweepLock) Release() {
	l.state.Store(0)
}
