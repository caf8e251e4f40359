// Package wchan implements wait channels: named queues of sleeping threads.
//
// A thread that has decided to block does so in two steps:
//
//	g := wc.Lock(t)    // 1. take the channel's internal lock
//	s.Release(t)       // 2. drop the caller's own lock
//	g.Sleep()          // 3. enqueue, drop the channel lock, suspend
//
// Wakers take the same internal lock, so between step 1 and the moment the
// sleeper is on the queue no wake can complete: the wake either happens
// before step 1 (and the caller will see the state change when it
// re-checks) or it waits for the sleeper to be queued and wakes it. This is
// what closes the lost-wakeup window.
//
// The Guard returned by Lock is the only way to sleep, and Sleep consumes
// it. A guard cannot be slept on twice or after Unlock.
//
// Wake order is FIFO within one channel, but callers must not rely on it:
// the primitives built on top re-check their condition after waking and a
// newly arriving thread may win the race.
package wchan

import (
	"sync/atomic"
	"unsafe"

	"github.com/gammazero/deque"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/internal/spinlock"
	"github.com/kolkov/ksynch/kmem"
	"github.com/kolkov/ksynch/thread"
)

// WaitChannel is a queue of sleeping threads.
type WaitChannel struct {
	name  string
	lock  spinlock.Spinlock
	queue deque.Deque[*sleeper]

	// sleeping mirrors queue.Len(). It only changes with lock held and is
	// read without it by Destroy, which has no thread to lock with.
	sleeping atomic.Int32

	arena *kmem.Arena
	block *kmem.Block
}

// sleeper is one suspended thread. wake is closed to resume it.
type sleeper struct {
	t    *thread.Thread
	wake chan struct{}
}

// Create allocates a wait channel labeled name from arena.
//
// The label is not copied: callers pass the name they already own.
func Create(name string, arena *kmem.Arena) (*WaitChannel, error) {
	block, err := arena.Alloc(int64(unsafe.Sizeof(WaitChannel{})))
	if err != nil {
		return nil, err
	}

	wc := &WaitChannel{name: name, arena: arena, block: block}
	wc.lock.Init()
	return wc, nil
}

// Destroy releases the channel. Destroying a channel with sleepers is fatal.
func (wc *WaitChannel) Destroy() {
	n := wc.sleeping.Load()
	kassert.Thatf(n == 0, "wchan_destroy", wc.name, "%d threads still sleeping", n)
	wc.lock.Cleanup()
	wc.arena.Free(wc.block)
	wc.block = nil
}

// Name returns the channel's label.
func (wc *WaitChannel) Name() string {
	return wc.name
}

// Guard is proof that the caller holds a wait channel's internal lock.
type Guard struct {
	wc   *WaitChannel
	t    *thread.Thread
	done bool
}

// Lock takes the channel's internal lock on behalf of t, as the first step
// of going to sleep.
func (wc *WaitChannel) Lock(t *thread.Thread) *Guard {
	wc.lock.Acquire(t)
	return &Guard{wc: wc, t: t}
}

// Sleep queues the thread, releases the channel lock and suspends until a
// wake. On return the channel lock is not held.
//
// The thread must not be in interrupt context and must hold no spinlock
// other than the channel's.
func (g *Guard) Sleep() {
	wc, t := g.wc, g.t
	g.consume("wchan_sleep")

	kassert.That(!t.InInterrupt(), "wchan_sleep", wc.name, "sleeping in interrupt handler")
	kassert.Thatf(t.HeldSpinlocks() == 1, "wchan_sleep", wc.name,
		"sleeping with %d other spinlocks held", t.HeldSpinlocks()-1)

	s := &sleeper{t: t, wake: make(chan struct{})}
	wc.queue.PushBack(s)
	wc.sleeping.Add(1)
	wc.lock.Release(t)

	<-s.wake
}

// Unlock releases the channel lock without sleeping.
func (g *Guard) Unlock() {
	g.consume("wchan_unlock")
	g.wc.lock.Release(g.t)
}

func (g *Guard) consume(op string) {
	kassert.That(!g.done, op, g.wc.name, "guard already used")
	kassert.Thatf(g.wc.lock.DoIHold(g.t), op, g.wc.name, "%v does not hold the channel lock", g.t)
	g.done = true
}

// WakeOne wakes one sleeper, if any. t is the waking thread; it may be in
// interrupt context.
func (wc *WaitChannel) WakeOne(t *thread.Thread) {
	wc.lock.Acquire(t)
	if wc.queue.Len() > 0 {
		wc.wake(wc.queue.PopFront())
	}
	wc.lock.Release(t)
}

// WakeAll wakes every thread sleeping at the time of the call.
func (wc *WaitChannel) WakeAll(t *thread.Thread) {
	wc.lock.Acquire(t)
	for wc.queue.Len() > 0 {
		wc.wake(wc.queue.PopFront())
	}
	wc.lock.Release(t)
}

// wake resumes a sleeper just taken off the queue. Called with lock held.
func (wc *WaitChannel) wake(s *sleeper) {
	wc.sleeping.Add(-1)
	close(s.wake)
}

// IsEmpty reports whether no thread is sleeping. The answer is stale as
// soon as it is returned unless the caller excludes sleepers some other way.
func (wc *WaitChannel) IsEmpty(t *thread.Thread) bool {
	wc.lock.Acquire(t)
	defer wc.lock.Release(t)

	return wc.queue.Len() == 0
}

// Sleepers returns the number of threads currently queued.
func (wc *WaitChannel) Sleepers(t *thread.Thread) int {
	wc.lock.Acquire(t)
	defer wc.lock.Release(t)

	return wc.queue.Len()
}
