// Package synch provides the kernel's blocking synchronization primitives:
// counting semaphores, sleep locks and condition variables.
//
// # Quick Start
//
//	t := thread.New("worker")
//	defer t.Exit()
//
//	lk, err := synch.NewLock("buffer lock")
//	if err != nil {
//		return err // allocation failure; nothing was leaked
//	}
//	defer lk.Destroy()
//
//	lk.Acquire(t)
//	// ... critical section ...
//	lk.Release(t)
//
// Every operation takes the calling thread's *thread.Thread explicitly.
// The handle is how a primitive knows who owns a lock, whether the caller
// is in an interrupt handler (where blocking is illegal) and which
// spinlocks it holds.
//
// # Blocking Protocol
//
// P, Lock.Acquire and CV.Wait all block the same way. With the primitive's
// spinlock held and the condition found false:
//
//  1. lock the wait channel (wchan.Lock returns a guard),
//  2. release the primitive's spinlock (for Wait: the caller's Lock),
//  3. sleep on the guard, which queues the thread, drops the wait
//     channel lock and suspends in one step,
//  4. on wakeup re-take the spinlock and re-check the condition.
//
// A waker must take the wait channel lock to wake anyone, so it cannot slip
// in between step 2 and the thread being queued. Taking the channel lock
// after step 2 instead would reopen the lost-wakeup window.
//
// A wake is a hint. No primitive hands a permit or the lock directly to the
// thread it wakes, and a thread arriving fresh may take it first. Waiters
// are therefore not served in FIFO order.
//
// # Errors
//
// Constructors fail only when the configured kmem.Arena runs out, and
// return an error wrapping kmem.ErrNoMemory after releasing everything
// they had allocated. Once constructed, no operation returns an error: it
// blocks or proceeds.
//
// Misuse is fatal. Double acquire, release by a non-owner, blocking in
// interrupt context, a negative initial count, semaphore count overflow,
// and destroying a primitive that is held or has waiters all panic with an
// *InvariantViolation.
//
// # Tracing
//
// With Options.Trace set, each permit and lock handoff is recorded in the
// threads' vector clocks: after P returns, the epoch of the V that posted
// the permit happens before the caller's clock. Tests use this to check
// that a handoff really orders the two threads.
package synch
