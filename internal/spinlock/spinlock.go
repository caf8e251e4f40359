// Package spinlock implements the busy-wait lock that guards each
// primitive's internal state.
//
// A spinlock never suspends its caller. It is only held across short,
// bounded critical sections, and a thread holding one must not sleep: the
// wait channel asserts this by checking the thread's spinlock count before
// suspending it.
//
// Goroutines stand in for kernel threads here, so a spinner yields the
// processor with runtime.Gosched between attempts rather than burning it
// while a descheduled holder waits for a turn.
package spinlock

import (
	"runtime"
	"sync/atomic"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/thread"
)

// spinsBeforeYield is how many failed probes a spinner makes before
// yielding to the scheduler.
const spinsBeforeYield = 64

// Spinlock is a test-and-test-and-set lock that records its holder.
//
// The zero value is an unheld spinlock.
type Spinlock struct {
	state  atomic.Uint32
	holder atomic.Pointer[thread.Thread]
}

// Init resets the spinlock to the unheld state.
func (s *Spinlock) Init() {
	s.holder.Store(nil)
	s.state.Store(0)
}

// Cleanup asserts the spinlock is not held; it must be the last use.
func (s *Spinlock) Cleanup() {
	kassert.Thatf(s.holder.Load() == nil, "spinlock_cleanup", "",
		"spinlock still held by %v", s.holder.Load())
}

// Acquire spins until t holds the lock. Re-acquiring a spinlock t already
// holds would spin forever, so it is fatal instead.
func (s *Spinlock) Acquire(t *thread.Thread) {
	kassert.Thatf(s.holder.Load() != t, "spinlock_acquire", "",
		"deadlock: %v already holds this spinlock", t)

	for spins := 1; ; spins++ {
		if s.state.Load() == 0 && s.state.CompareAndSwap(0, 1) {
			break
		}
		if spins%spinsBeforeYield == 0 {
			runtime.Gosched()
		}
	}
	s.holder.Store(t)
	t.SpinlockAcquired()
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (s *Spinlock) TryAcquire(t *thread.Thread) bool {
	kassert.Thatf(s.holder.Load() != t, "spinlock_acquire", "",
		"deadlock: %v already holds this spinlock", t)

	if !s.state.CompareAndSwap(0, 1) {
		return false
	}
	s.holder.Store(t)
	t.SpinlockAcquired()
	return true
}

// Release drops the lock. Only the holder may release it.
func (s *Spinlock) Release(t *thread.Thread) {
	kassert.Thatf(s.holder.Load() == t, "spinlock_release", "",
		"%v releasing spinlock held by %v", t, s.holder.Load())

	s.holder.Store(nil)
	t.SpinlockReleased()
	s.state.Store(0)
}

// DoIHold reports whether t holds the lock.
func (s *Spinlock) DoIHold(t *thread.Thread) bool {
	return s.holder.Load() == t
}
