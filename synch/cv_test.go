package synch_test

import (
	"context"
	"testing"

	"github.com/kolkov/ksynch/synch"
	"github.com/kolkov/ksynch/thread"
)

func newCV(t *testing.T, name string, opts synch.Options) *synch.CV {
	t.Helper()
	cv, err := synch.NewCVWithOptions(name, opts)
	if err != nil {
		t.Fatalf("NewCVWithOptions(%q) = %v", name, err)
	}
	return cv
}

// TestCVSignalNoWaiters verifies signals nobody waits for are dropped.
func TestCVSignalNoWaiters(t *testing.T) {
	th := thread.New("signaler")
	defer th.Exit()
	lk := newLock(t, "lk", synch.Options{})
	defer lk.Destroy()
	cv := newCV(t, "cv", synch.Options{})
	defer cv.Destroy()

	lk.Acquire(th)
	cv.Signal(th, lk)
	cv.Broadcast(th, lk)
	lk.Release(th)

	// A waiter arriving afterwards must still block.
	done := make(chan struct{})
	go func() {
		w := thread.New("waiter")
		defer w.Exit()
		lk.Acquire(w)
		cv.Wait(w, lk)
		lk.Release(w)
		close(done)
	}()
	stillBlocked(t, done, "Wait")

	lk.Acquire(th)
	cv.Signal(th, lk)
	lk.Release(th)
	eventually(t, done, "Wait")
}

// TestCVWaitReleasesLock verifies the lock is free while a waiter sleeps
// and held again when Wait returns.
func TestCVWaitReleasesLock(t *testing.T) {
	th := thread.New("signaler")
	defer th.Exit()
	lk := newLock(t, "lk", synch.Options{})
	defer lk.Destroy()
	cv := newCV(t, "cv", synch.Options{})
	defer cv.Destroy()

	ready := false
	waiting := make(chan *thread.Thread)
	done := make(chan struct{})
	go func() {
		w := thread.New("waiter")
		defer w.Exit()
		lk.Acquire(w)
		waiting <- w
		for !ready {
			cv.Wait(w, lk)
		}
		if !lk.DoIHold(w) {
			t.Error("Wait returned without the lock")
		}
		lk.Release(w)
		close(done)
	}()

	w := <-waiting
	// Acquire succeeds only once the waiter has released lk inside Wait.
	lk.Acquire(th)
	if lk.DoIHold(w) {
		t.Error("sleeping waiter still owns the lock")
	}
	ready = true
	cv.Signal(th, lk)
	lk.Release(th)

	eventually(t, done, "Wait")
}

// TestCVBroadcast verifies every waiter wakes.
func TestCVBroadcast(t *testing.T) {
	const waiters = 6

	th := thread.New("broadcaster")
	defer th.Exit()
	lk := newLock(t, "lk", synch.Options{})
	defer lk.Destroy()
	cv := newCV(t, "cv", synch.Options{})
	defer cv.Destroy()

	var (
		open    bool
		parked  int
		arrived = newCV(t, "arrived", synch.Options{})
	)
	defer arrived.Destroy()

	g, _ := thread.NewGroup(context.Background())
	for i := 0; i < waiters; i++ {
		g.Fork("waiter", func(w *thread.Thread) error {
			lk.Acquire(w)
			parked++
			arrived.Signal(w, lk)
			for !open {
				cv.Wait(w, lk)
			}
			lk.Release(w)
			return nil
		})
	}

	lk.Acquire(th)
	for parked < waiters {
		arrived.Wait(th, lk)
	}
	open = true
	cv.Broadcast(th, lk)
	lk.Release(th)

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestCVMisuse verifies the fatal paths.
func TestCVMisuse(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		op     string
		fn     func(cv *synch.CV, lk *synch.Lock, th *thread.Thread)
	}{
		{"wait without lock", false, "cv_wait", func(cv *synch.CV, lk *synch.Lock, th *thread.Thread) {
			cv.Wait(th, lk)
		}},
		{"wait in interrupt", false, "cv_wait", func(cv *synch.CV, lk *synch.Lock, th *thread.Thread) {
			lk.Acquire(th)
			defer lk.Release(th)
			th.EnterInterrupt()
			defer th.ExitInterrupt()
			cv.Wait(th, lk)
		}},
		{"strict signal without lock", true, "cv_signal", func(cv *synch.CV, lk *synch.Lock, th *thread.Thread) {
			cv.Signal(th, lk)
		}},
		{"strict broadcast without lock", true, "cv_broadcast", func(cv *synch.CV, lk *synch.Lock, th *thread.Thread) {
			cv.Broadcast(th, lk)
		}},
		{"wait with nil lock", false, "cv_wait", func(cv *synch.CV, _ *synch.Lock, th *thread.Thread) {
			cv.Wait(th, nil)
		}},
		{"signal with nil lock", false, "cv_signal", func(cv *synch.CV, _ *synch.Lock, th *thread.Thread) {
			cv.Signal(th, nil)
		}},
		{"broadcast with nil lock", false, "cv_broadcast", func(cv *synch.CV, _ *synch.Lock, th *thread.Thread) {
			cv.Broadcast(th, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := thread.New("misuser")
			defer th.Exit()
			lk := newLock(t, "lk", synch.Options{})
			defer lk.Destroy()
			cv := newCV(t, "cv", synch.Options{StrictCV: tt.strict})
			defer cv.Destroy()

			expectViolation(t, tt.op, func() { tt.fn(cv, lk, th) })
		})
	}
}

// TestCVLooseSignal verifies that without StrictCV the caller need not
// hold the lock it passes.
func TestCVLooseSignal(t *testing.T) {
	th := thread.New("loose")
	defer th.Exit()
	lk := newLock(t, "lk", synch.Options{})
	defer lk.Destroy()
	cv := newCV(t, "cv", synch.Options{})
	defer cv.Destroy()

	cv.Signal(th, lk)
	cv.Broadcast(th, lk)
}

// boundedBuffer is the classic producer/consumer ring guarded by one lock
// and two condition variables.
type boundedBuffer struct {
	lk       *synch.Lock
	notFull  *synch.CV
	notEmpty *synch.CV

	items  []int
	limit  int
	maxLen int
}

func (b *boundedBuffer) put(th *thread.Thread, v int) {
	b.lk.Acquire(th)
	for len(b.items) == b.limit {
		b.notFull.Wait(th, b.lk)
	}
	b.items = append(b.items, v)
	b.maxLen = max(b.maxLen, len(b.items))
	b.notEmpty.Signal(th, b.lk)
	b.lk.Release(th)
}

func (b *boundedBuffer) get(th *thread.Thread) int {
	b.lk.Acquire(th)
	for len(b.items) == 0 {
		b.notEmpty.Wait(th, b.lk)
	}
	v := b.items[0]
	b.items = b.items[1:]
	b.notFull.Signal(th, b.lk)
	b.lk.Release(th)
	return v
}

// TestCVBoundedBuffer runs producers and consumers through a small buffer.
func TestCVBoundedBuffer(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		producers int
		consumers int
	}{
		{"single slot", 1, 2, 2},
		{"small", 4, 4, 2},
		{"many consumers", 8, 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perProducer := iterations(600)
			total := tt.producers * perProducer
			if total%tt.consumers != 0 {
				t.Fatalf("bad case: %d items over %d consumers", total, tt.consumers)
			}

			strict := synch.Options{StrictCV: true}
			b := &boundedBuffer{
				lk:       newLock(t, "buffer", synch.Options{}),
				notFull:  newCV(t, "not full", strict),
				notEmpty: newCV(t, "not empty", strict),
				limit:    tt.capacity,
			}
			defer b.lk.Destroy()
			defer b.notFull.Destroy()
			defer b.notEmpty.Destroy()

			sums := make([]int, tt.consumers)
			g, _ := thread.NewGroup(context.Background())
			for p := 0; p < tt.producers; p++ {
				g.Fork("producer", func(th *thread.Thread) error {
					for i := 1; i <= perProducer; i++ {
						b.put(th, i)
					}
					return nil
				})
			}
			for c := 0; c < tt.consumers; c++ {
				g.Fork("consumer", func(th *thread.Thread) error {
					for i := 0; i < total/tt.consumers; i++ {
						sums[c] += b.get(th)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}

			got := 0
			for _, s := range sums {
				got += s
			}
			want := tt.producers * perProducer * (perProducer + 1) / 2
			if got != want {
				t.Errorf("consumed sum = %d, want %d", got, want)
			}
			if b.maxLen > tt.capacity {
				t.Errorf("buffer reached %d items, capacity %d", b.maxLen, tt.capacity)
			}
			if len(b.items) != 0 {
				t.Errorf("%d items left in buffer", len(b.items))
			}
		})
	}
}
