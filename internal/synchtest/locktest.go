package synchtest

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/kolkov/ksynch/internal/epoch"
	"github.com/kolkov/ksynch/synch"
	"github.com/kolkov/ksynch/thread"
)

// lockedValues are written together under the test lock. Any thread that
// holds the lock must see them consistent with each other.
type lockedValues struct {
	v1, v2, v3 int

	// last is the epoch at which the previous holder finished writing.
	last    epoch.Epoch
	hasLast bool
}

// lockTest (sy2) has every thread repeatedly take the lock, write three
// related values with yields in between, and check them before releasing.
func lockTest(ctx context.Context, cfg Config) (int64, error) {
	f := newFixture(cfg)
	lk := f.lock("testlock")
	if f.err != nil {
		f.close()
		return 0, f.err
	}

	var (
		ops  atomic.Int64
		vals lockedValues
	)
	g, _ := thread.NewGroup(ctx)
	for i := 0; i < cfg.Threads; i++ {
		g.Fork(fmt.Sprintf("locktest%d", i), func(th *thread.Thread) error {
			for j := 0; j < cfg.Loops; j++ {
				lk.Acquire(th)
				ops.Add(1)
				err := vals.update(th, lk, i, cfg.Trace)
				lk.Release(th)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ops.Load(), err
	}

	f.close()
	return ops.Load(), nil
}

func (lv *lockedValues) update(th *thread.Thread, lk *synch.Lock, num int, trace bool) error {
	if !lk.DoIHold(th) {
		return fmt.Errorf("%v does not hold %s after Acquire", th, lk.Name())
	}
	if trace && lv.hasLast && !lv.last.HappensBefore(th.Clock()) {
		return fmt.Errorf("previous holder at %v not ordered before %v", lv.last, th)
	}

	lv.v1 = num
	runtime.Gosched()
	lv.v2 = num * num
	runtime.Gosched()
	lv.v3 = num % 3
	runtime.Gosched()

	switch {
	case lv.v1 != num:
		return fmt.Errorf("v1 = %d, wrote %d", lv.v1, num)
	case lv.v2 != lv.v1*lv.v1:
		return fmt.Errorf("v2 = %d, want %d", lv.v2, lv.v1*lv.v1)
	case lv.v3 != lv.v1%3:
		return fmt.Errorf("v3 = %d, want %d", lv.v3, lv.v1%3)
	case lv.v2%3 != (lv.v3*lv.v3)%3:
		return fmt.Errorf("v2 mod 3 = %d, want %d", lv.v2%3, (lv.v3*lv.v3)%3)
	}

	lv.last, lv.hasLast = th.Epoch(), true
	return nil
}
