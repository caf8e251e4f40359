package synch

import (
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/internal/spinlock"
	"github.com/kolkov/ksynch/internal/syncshadow"
	"github.com/kolkov/ksynch/thread"
)

// Semaphore is a counting semaphore.
type Semaphore struct {
	header
	spin spinlock.Spinlock

	// count is the number of available permits. It is only modified with
	// spin held; it is atomic so that Count can read it without the lock.
	count atomic.Int64

	shadow *syncshadow.SyncVar
}

// NewSemaphore creates a semaphore with initial permits.
func NewSemaphore(name string, initial int) (*Semaphore, error) {
	return NewSemaphoreWithOptions(name, initial, Options{})
}

// NewSemaphoreWithOptions creates a semaphore with initial permits.
//
// A negative initial count is fatal. If an allocation fails, the returned
// error wraps kmem.ErrNoMemory and nothing stays allocated.
func NewSemaphoreWithOptions(name string, initial int, opts Options) (*Semaphore, error) {
	kassert.Thatf(initial >= 0, "sem_create", name, "negative initial count %d", initial)

	h, err := alloc("semaphore", name, unsafe.Sizeof(Semaphore{}), opts.arena())
	if err != nil {
		return nil, err
	}

	s := &Semaphore{header: h, shadow: opts.shadow()}
	s.spin.Init()
	s.count.Store(int64(initial))
	return s, nil
}

// Destroy releases the semaphore. Destroying a semaphore that threads are
// waiting on is fatal.
func (s *Semaphore) Destroy() {
	s.spin.Cleanup()
	s.free()
}

// Name returns the semaphore's name.
func (s *Semaphore) Name() string {
	return s.name
}

// Count returns the number of available permits. The value may be stale by
// the time the caller looks at it.
func (s *Semaphore) Count() int {
	return int(s.count.Load())
}

// P waits until a permit is available and takes it.
//
// P may block, so calling it from an interrupt handler is fatal.
func (s *Semaphore) P(t *thread.Thread) {
	kassert.That(!t.InInterrupt(), "P", s.name, "called in interrupt handler")

	s.spin.Acquire(t)
	for s.count.Load() == 0 {
		g := s.wchan.Lock(t)
		s.spin.Release(t)
		g.Sleep()
		s.spin.Acquire(t)
	}
	kassert.That(s.count.Load() > 0, "P", s.name, "count went negative")
	s.count.Add(-1)
	s.shadow.Acquire(t)
	s.spin.Release(t)
}

// TryP takes a permit if one is available and reports whether it did.
// It never sleeps, so it may be called from an interrupt handler.
func (s *Semaphore) TryP(t *thread.Thread) bool {
	s.spin.Acquire(t)
	defer s.spin.Release(t)

	if s.count.Load() == 0 {
		return false
	}
	s.count.Add(-1)
	s.shadow.Acquire(t)
	return true
}

// V returns a permit and wakes one waiter, if any.
//
// The woken thread competes for the permit like any other caller of P.
// Overflowing the count is fatal.
func (s *Semaphore) V(t *thread.Thread) {
	s.spin.Acquire(t)
	kassert.Thatf(s.count.Add(1) > 0, "V", s.name, "count overflow")
	s.shadow.ReleaseMerge(t)
	s.wchan.WakeOne(t)
	s.spin.Release(t)
}
