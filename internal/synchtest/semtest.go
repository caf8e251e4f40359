package synchtest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kolkov/ksynch/internal/epoch"
	"github.com/kolkov/ksynch/thread"
)

// semaphoreTest (sy1) opens a gate semaphore one permit at a time and
// checks that each V admits exactly one thread. Each thread then runs
// cfg.Loops P/V pairs on a binary semaphore used as a mutex.
func semaphoreTest(ctx context.Context, cfg Config) (int64, error) {
	f := newFixture(cfg)
	gate := f.sem("testsem", 2)
	done := f.sem("donesem", 0)
	mutex := f.sem("mutexsem", 1)
	if f.err != nil {
		f.close()
		return 0, f.err
	}

	self := thread.New("sy1")
	defer self.Exit()

	gate.P(self)
	gate.P(self)

	var (
		ops     atomic.Int64
		atGate  atomic.Int32
		inMutex atomic.Int32
		posted  atomic.Uint64 // epoch of the V that opened the gate last
	)
	g, _ := thread.NewGroup(ctx)
	for i := 0; i < cfg.Threads; i++ {
		g.Fork(fmt.Sprintf("semtest%d", i), func(th *thread.Thread) error {
			var err error
			gate.P(th)
			ops.Add(1)
			if n := atGate.Add(1); n != 1 {
				err = fmt.Errorf("%d threads past the gate at once", n)
			}
			if e := epoch.Epoch(posted.Load()); cfg.Trace && !e.HappensBefore(th.Clock()) {
				err = fmt.Errorf("gate V at %v not ordered before P by %v", e, th)
			}
			atGate.Add(-1)
			done.V(th)
			if err != nil {
				return err
			}

			for j := 0; j < cfg.Loops; j++ {
				mutex.P(th)
				ops.Add(1)
				n := inMutex.Add(1)
				inMutex.Add(-1)
				mutex.V(th)
				if n != 1 {
					return fmt.Errorf("%d threads holding a binary semaphore", n)
				}
			}
			return nil
		})
	}

	for i := 0; i < cfg.Threads; i++ {
		posted.Store(uint64(self.Epoch()))
		gate.V(self)
		done.P(self)
		ops.Add(1)
	}
	if err := g.Wait(); err != nil {
		return ops.Load(), err
	}

	gate.V(self)
	gate.V(self)
	if c := gate.Count(); c != 2 {
		return ops.Load(), fmt.Errorf("gate count %d after test, want 2", c)
	}
	if c := mutex.Count(); c != 1 {
		return ops.Load(), fmt.Errorf("mutex count %d after test, want 1", c)
	}
	f.close()
	return ops.Load(), nil
}
