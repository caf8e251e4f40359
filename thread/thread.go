package thread

import (
	"fmt"
	"sync/atomic"

	"github.com/kolkov/ksynch/internal/epoch"
	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/internal/vectorclock"
)

// Thread is a kernel thread's execution context.
//
// The pointer itself is the thread's identity: two handles are the same
// thread iff they are the same pointer. A Thread must only be used by the
// goroutine it was created on (or forked into); the counters below are
// atomics only so that diagnostics on other goroutines can read them
// without a data race.
type Thread struct {
	name string
	tid  uint16
	gid  int64

	// interrupt is the nesting depth of simulated interrupt handlers.
	interrupt atomic.Int32

	// spinlocks is the number of spinlocks currently held.
	spinlocks atomic.Int32

	// clock is this thread's happens-before clock. Only the owning thread
	// reads or writes it.
	clock *vectorclock.VectorClock

	exited atomic.Bool
}

// New creates a thread for the calling goroutine and binds it so that
// Current returns it. Call Exit when the thread is done.
func New(name string) *Thread {
	tid, last := tids.alloc()
	t := &Thread{
		name:  name,
		tid:   tid,
		gid:   goroutineID(),
		clock: vectorclock.New(),
	}
	// Own entry starts past anything an earlier owner of tid published, so
	// a fresh epoch is never ordered before a clock that has not seen it.
	t.clock.Set(tid, last+1)
	bind(t)
	return t
}

// Exit unbinds the thread and returns its id to the pool.
//
// Exiting while holding a spinlock or inside an interrupt handler is fatal.
// Exit is idempotent.
func (t *Thread) Exit() {
	if !t.exited.CompareAndSwap(false, true) {
		return
	}
	kassert.Thatf(t.spinlocks.Load() == 0, "thread_exit", t.name,
		"exiting with %d spinlocks held", t.spinlocks.Load())
	kassert.That(t.interrupt.Load() == 0, "thread_exit", t.name, "exiting inside interrupt handler")

	unbind(t)
	tids.release(t.tid, t.clock.Get(t.tid))
}

// Name returns the thread's display name.
func (t *Thread) Name() string {
	return t.name
}

// ID returns the thread's small integer id. Ids are reused after Exit.
func (t *Thread) ID() uint16 {
	return t.tid
}

// String returns "name#id".
func (t *Thread) String() string {
	if t == nil {
		return "<nil thread>"
	}
	return fmt.Sprintf("%s#%d", t.name, t.tid)
}

// EnterInterrupt marks the start of a (simulated) interrupt handler running
// on this thread. Handlers nest.
func (t *Thread) EnterInterrupt() {
	t.interrupt.Add(1)
}

// ExitInterrupt marks the end of the innermost interrupt handler.
func (t *Thread) ExitInterrupt() {
	kassert.That(t.interrupt.Add(-1) >= 0, "interrupt_exit", t.name, "not in interrupt handler")
}

// InInterrupt reports whether the thread is running an interrupt handler.
func (t *Thread) InInterrupt() bool {
	return t.interrupt.Load() > 0
}

// SpinlockAcquired records that the thread now holds one more spinlock.
// Called by the spinlock implementation, not by users.
func (t *Thread) SpinlockAcquired() {
	t.spinlocks.Add(1)
}

// SpinlockReleased records that the thread released a spinlock.
// Called by the spinlock implementation, not by users.
func (t *Thread) SpinlockReleased() {
	kassert.That(t.spinlocks.Add(-1) >= 0, "spinlock_release", t.name, "spinlock count underflow")
}

// HeldSpinlocks returns the number of spinlocks the thread holds.
func (t *Thread) HeldSpinlocks() int {
	return int(t.spinlocks.Load())
}

// Clock returns the thread's happens-before clock.
//
// The clock belongs to the thread: only the owning thread may read or
// modify it.
func (t *Thread) Clock() *vectorclock.VectorClock {
	return t.clock
}

// Tick advances the thread's own clock entry, ending the current epoch.
func (t *Thread) Tick() {
	t.clock.Increment(t.tid)
}

// Epoch returns the thread's current point in logical time.
func (t *Thread) Epoch() epoch.Epoch {
	return epoch.NewEpoch(t.tid, t.clock.Get(t.tid))
}
