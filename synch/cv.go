package synch

import (
	"unsafe"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/thread"
)

// CV is a condition variable. It is always used together with a Lock that
// protects the condition being waited for; the CV itself has no state
// besides its waiters and does not remember signals nobody waited for.
type CV struct {
	header
	strict bool
}

// NewCV creates a condition variable.
func NewCV(name string) (*CV, error) {
	return NewCVWithOptions(name, Options{})
}

// NewCVWithOptions creates a condition variable. If an allocation fails, the
// returned error wraps kmem.ErrNoMemory and nothing stays allocated.
func NewCVWithOptions(name string, opts Options) (*CV, error) {
	h, err := alloc("cv", name, unsafe.Sizeof(CV{}), opts.arena())
	if err != nil {
		return nil, err
	}
	return &CV{header: h, strict: opts.StrictCV}, nil
}

// Destroy releases the condition variable. Destroying it while threads are
// waiting is fatal.
func (cv *CV) Destroy() {
	cv.free()
}

// Name returns the condition variable's name.
func (cv *CV) Name() string {
	return cv.name
}

// Wait releases lk, sleeps until signaled and re-acquires lk before
// returning. t must hold lk.
//
// Wakeups may be spurious, and another thread may change the condition
// between the signal and Wait re-acquiring lk, so callers wait in a loop:
//
//	lk.Acquire(t)
//	for !ready {
//		cv.Wait(t, lk)
//	}
//	lk.Release(t)
func (cv *CV) Wait(t *thread.Thread, lk *Lock) {
	kassert.That(lk != nil, "cv_wait", cv.name, "nil lock")
	kassert.Thatf(lk.DoIHold(t), "cv_wait", cv.name, "%v does not hold %s", t, lk.name)
	kassert.That(!t.InInterrupt(), "cv_wait", cv.name, "called in interrupt handler")

	g := cv.wchan.Lock(t)
	lk.Release(t)
	g.Sleep()
	lk.Acquire(t)
}

// Signal wakes one thread waiting on cv, if any. lk must not be nil and
// the caller should hold it; see Options.StrictCV.
func (cv *CV) Signal(t *thread.Thread, lk *Lock) {
	cv.checkHolder("cv_signal", t, lk)
	cv.wchan.WakeOne(t)
}

// Broadcast wakes every thread waiting on cv. lk must not be nil and the
// caller should hold it; see Options.StrictCV.
func (cv *CV) Broadcast(t *thread.Thread, lk *Lock) {
	cv.checkHolder("cv_broadcast", t, lk)
	cv.wchan.WakeAll(t)
}

func (cv *CV) checkHolder(op string, t *thread.Thread, lk *Lock) {
	kassert.That(lk != nil, op, cv.name, "nil lock")
	if !cv.strict {
		return
	}
	kassert.Thatf(lk.DoIHold(t), op, cv.name, "%v signals without holding the lock", t)
}
