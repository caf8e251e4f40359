package synch

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/internal/spinlock"
	"github.com/kolkov/ksynch/internal/stackdepot"
	"github.com/kolkov/ksynch/internal/syncshadow"
	"github.com/kolkov/ksynch/thread"
)

// Lock is a sleep lock: a mutual-exclusion lock whose waiters block
// instead of spinning. It is not recursive.
type Lock struct {
	header
	spin spinlock.Spinlock

	// held is protected by spin. owner and site are written with spin held
	// by the acquiring or releasing thread only, and read without it by
	// the ownership queries and diagnostics.
	held  bool
	owner atomic.Pointer[thread.Thread]
	site  atomic.Uint64 // stackdepot hash of the owner's Acquire

	shadow *syncshadow.SyncVar
}

// NewLock creates an unheld lock.
func NewLock(name string) (*Lock, error) {
	return NewLockWithOptions(name, Options{})
}

// NewLockWithOptions creates an unheld lock. If an allocation fails, the
// returned error wraps kmem.ErrNoMemory and nothing stays allocated.
func NewLockWithOptions(name string, opts Options) (*Lock, error) {
	h, err := alloc("lock", name, unsafe.Sizeof(Lock{}), opts.arena())
	if err != nil {
		return nil, err
	}

	l := &Lock{header: h, shadow: opts.shadow()}
	l.spin.Init()
	return l, nil
}

// Destroy releases the lock. Destroying a held lock, or one that threads
// are waiting on, is fatal.
func (l *Lock) Destroy() {
	if l.owner.Load() != nil {
		kassert.Fail("lock_destroy", l.name, "lock is held by "+l.describeOwner())
	}
	l.spin.Cleanup()
	l.free()
}

// Name returns the lock's name.
func (l *Lock) Name() string {
	return l.name
}

// Acquire waits until the lock is free and takes it for t.
//
// Acquiring a lock t already holds is fatal, as is calling Acquire from an
// interrupt handler.
func (l *Lock) Acquire(t *thread.Thread) {
	if l.DoIHold(t) {
		kassert.Fail("lock_acquire", l.name,
			fmt.Sprintf("%v already holds the lock, acquired at:\n%s", t, l.ownerSite()))
	}
	kassert.That(!t.InInterrupt(), "lock_acquire", l.name, "called in interrupt handler")

	site := stackdepot.CaptureStack()
	l.spin.Acquire(t)
	for l.held {
		g := l.wchan.Lock(t)
		l.spin.Release(t)
		g.Sleep()
		l.spin.Acquire(t)
	}
	kassert.That(l.owner.Load() == nil, "lock_acquire", l.name, "free lock has an owner")
	l.held = true
	l.owner.Store(t)
	l.site.Store(site)
	l.shadow.Acquire(t)
	l.spin.Release(t)
}

// Release gives up the lock and wakes one waiter, if any. Only the owner
// may release.
func (l *Lock) Release(t *thread.Thread) {
	if !l.DoIHold(t) {
		kassert.Fail("lock_release", l.name,
			fmt.Sprintf("%v releasing lock held by %s", t, l.describeOwner()))
	}

	l.spin.Acquire(t)
	l.shadow.Release(t)
	l.held = false
	l.owner.Store(nil)
	l.site.Store(0)
	l.wchan.WakeOne(t)
	l.spin.Release(t)
}

// DoIHold reports whether t holds the lock.
//
// It reads the owner without taking the spinlock. The answer is exact for
// t itself, since only t can change whether t is the owner; use it for
// assertions, not to decide who may enter a critical section.
func (l *Lock) DoIHold(t *thread.Thread) bool {
	return l.owner.Load() == t
}

// Owner returns the thread holding the lock, or nil. Diagnostic only: the
// answer may be stale by the time the caller looks at it.
func (l *Lock) Owner() *thread.Thread {
	return l.owner.Load()
}

func (l *Lock) describeOwner() string {
	owner := l.owner.Load()
	if owner == nil {
		return "nobody"
	}
	return fmt.Sprintf("%v, acquired at:\n%s", owner, l.ownerSite())
}

func (l *Lock) ownerSite() string {
	return stackdepot.GetStack(l.site.Load()).FormatStack()
}
