package synchtest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kolkov/ksynch/thread"
)

// cvTest (sy3) makes the threads take turns in reverse order of creation:
// thread n-1 goes first, then n-2, down to 0, then round again. Each thread
// waits on the CV until it is its turn and broadcasts after passing the
// turn on. The recorded order must be exactly that sequence.
func cvTest(ctx context.Context, cfg Config) (int64, error) {
	f := newFixture(cfg)
	lk := f.lock("testlock")
	cv := f.cv("testcv")
	if f.err != nil {
		f.close()
		return 0, f.err
	}

	n := cfg.Threads
	var (
		ops   atomic.Int64
		turn  = n - 1
		order = make([]int, 0, n*cfg.Loops)
	)
	g, _ := thread.NewGroup(ctx)
	for i := 0; i < n; i++ {
		g.Fork(fmt.Sprintf("cvtest%d", i), func(th *thread.Thread) error {
			for j := 0; j < cfg.Loops; j++ {
				lk.Acquire(th)
				ops.Add(1)
				for turn != i {
					cv.Wait(th, lk)
					ops.Add(1)
				}
				order = append(order, i)
				turn = (turn + n - 1) % n
				cv.Broadcast(th, lk)
				lk.Release(th)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ops.Load(), err
	}

	for k, got := range order {
		if want := n - 1 - k%n; got != want {
			return ops.Load(), fmt.Errorf("turn %d taken by thread %d, want %d", k, got, want)
		}
	}
	if len(order) != n*cfg.Loops {
		return ops.Load(), fmt.Errorf("%d turns taken, want %d", len(order), n*cfg.Loops)
	}

	f.close()
	return ops.Load(), nil
}
