package synch

import (
	"math"
	"testing"
	"time"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/thread"
)

// waitForSleepers polls until n threads are queued on h's wait channel.
func waitForSleepers(t *testing.T, th *thread.Thread, h *header, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.wchan.Sleepers(th) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d sleepers on %s", n, h.name)
		}
		time.Sleep(time.Millisecond)
	}
}

func expectOp(t *testing.T, op string, fn func()) {
	t.Helper()
	var v *kassert.Violation
	func() {
		defer func() { v, _ = kassert.As(recover()) }()
		fn()
	}()
	if v == nil || v.Op != op {
		t.Fatalf("expected %s violation, got %v", op, v)
	}
}

// TestSemaphoreOverflow verifies V detects count wraparound.
func TestSemaphoreOverflow(t *testing.T) {
	th := thread.New("overflow")
	defer th.Exit()
	s, err := NewSemaphore("full", 0)
	if err != nil {
		t.Fatal(err)
	}

	s.count.Store(math.MaxInt64)
	expectOp(t, "V", func() { s.V(th) })

	// V died holding the spinlock.
	s.spin.Release(th)
	s.count.Store(0)
	s.Destroy()
}

// TestDestroyWithWaiters verifies each primitive refuses to be destroyed
// while a thread sleeps on it.
func TestDestroyWithWaiters(t *testing.T) {
	th := thread.New("destroyer")
	defer th.Exit()

	t.Run("semaphore", func(t *testing.T) {
		s, err := NewSemaphore("busy", 0)
		if err != nil {
			t.Fatal(err)
		}
		done := make(chan struct{})
		go func() {
			w := thread.New("waiter")
			defer w.Exit()
			s.P(w)
			close(done)
		}()
		waitForSleepers(t, th, &s.header, 1)

		expectOp(t, "wchan_destroy", s.Destroy)
		s.V(th)
		<-done
		s.Destroy()
	})

	t.Run("lock", func(t *testing.T) {
		lk, err := NewLock("busy")
		if err != nil {
			t.Fatal(err)
		}
		lk.Acquire(th)
		done := make(chan struct{})
		go func() {
			w := thread.New("waiter")
			defer w.Exit()
			lk.Acquire(w)
			lk.Release(w)
			close(done)
		}()
		waitForSleepers(t, th, &lk.header, 1)

		expectOp(t, "lock_destroy", lk.Destroy)
		lk.Release(th)
		<-done
		lk.Destroy()
	})

	t.Run("cv", func(t *testing.T) {
		lk, err := NewLock("cv lock")
		if err != nil {
			t.Fatal(err)
		}
		defer lk.Destroy()
		cv, err := NewCV("busy")
		if err != nil {
			t.Fatal(err)
		}
		done := make(chan struct{})
		go func() {
			w := thread.New("waiter")
			defer w.Exit()
			lk.Acquire(w)
			cv.Wait(w, lk)
			lk.Release(w)
			close(done)
		}()
		waitForSleepers(t, th, &cv.header, 1)

		expectOp(t, "wchan_destroy", cv.Destroy)
		cv.Signal(th, lk)
		<-done
		cv.Destroy()
	})
}
