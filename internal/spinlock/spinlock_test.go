package spinlock

import (
	"context"
	"testing"

	"github.com/kolkov/ksynch/internal/kassert"
	"github.com/kolkov/ksynch/thread"
)

// TestAcquireRelease verifies holder and per-thread bookkeeping.
func TestAcquireRelease(t *testing.T) {
	th := thread.New("spin")
	defer th.Exit()

	var s Spinlock
	s.Init()

	s.Acquire(th)
	if !s.DoIHold(th) {
		t.Error("DoIHold() = false after Acquire")
	}
	if th.HeldSpinlocks() != 1 {
		t.Errorf("HeldSpinlocks() = %d, want 1", th.HeldSpinlocks())
	}

	s.Release(th)
	if s.DoIHold(th) {
		t.Error("DoIHold() = true after Release")
	}
	if th.HeldSpinlocks() != 0 {
		t.Errorf("HeldSpinlocks() = %d, want 0", th.HeldSpinlocks())
	}
	s.Cleanup()
}

// TestTryAcquire verifies the non-blocking path.
func TestTryAcquire(t *testing.T) {
	a, b := thread.New("a"), thread.New("b")
	defer a.Exit()
	defer b.Exit()

	var s Spinlock
	if !s.TryAcquire(a) {
		t.Fatal("TryAcquire on free lock failed")
	}
	if s.TryAcquire(b) {
		t.Fatal("TryAcquire on held lock succeeded")
	}
	s.Release(a)
	if !s.TryAcquire(b) {
		t.Fatal("TryAcquire after release failed")
	}
	s.Release(b)
}

// TestMisuse verifies the fatal paths.
func TestMisuse(t *testing.T) {
	tests := []struct {
		name string
		op   string
		fn   func(s *Spinlock, owner, other *thread.Thread)
	}{
		{"recursive acquire", "spinlock_acquire", func(s *Spinlock, owner, _ *thread.Thread) {
			s.Acquire(owner)
		}},
		{"release by non-holder", "spinlock_release", func(s *Spinlock, _, other *thread.Thread) {
			s.Release(other)
		}},
		{"cleanup while held", "spinlock_cleanup", func(s *Spinlock, _, _ *thread.Thread) {
			s.Cleanup()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, other := thread.New("owner"), thread.New("other")
			defer other.Exit()

			var s Spinlock
			s.Acquire(owner)
			defer func() {
				v, ok := kassert.As(recover())
				if !ok || v.Op != tt.op {
					t.Fatalf("expected %s violation, got %v", tt.op, v)
				}
				s.Release(owner)
				owner.Exit()
			}()
			tt.fn(&s, owner, other)
		})
	}
}

// TestMutualExclusion hammers a counter guarded only by the spinlock.
func TestMutualExclusion(t *testing.T) {
	const (
		threads = 8
		iters   = 2000
	)

	var (
		s       Spinlock
		counter int
	)
	g, _ := thread.NewGroup(context.Background())
	for i := 0; i < threads; i++ {
		g.Fork("hammer", func(th *thread.Thread) error {
			for j := 0; j < iters; j++ {
				s.Acquire(th)
				counter++
				s.Release(th)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if counter != threads*iters {
		t.Errorf("counter = %d, want %d", counter, threads*iters)
	}
}

// BenchmarkUncontended measures an acquire/release pair with no contention.
func BenchmarkUncontended(b *testing.B) {
	th := thread.New("bench")
	defer th.Exit()

	var s Spinlock
	for i := 0; i < b.N; i++ {
		s.Acquire(th)
		s.Release(th)
	}
}
