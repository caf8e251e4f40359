package synchtest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kolkov/ksynch/synch"
	"github.com/kolkov/ksynch/thread"
)

// ring is a fixed-capacity FIFO guarded by lk, with one CV per condition.
type ring struct {
	lk       *synch.Lock
	notFull  *synch.CV
	notEmpty *synch.CV

	slots []int
	head  int
	n     int
	peak  int
}

func (r *ring) put(th *thread.Thread, v int, ops *atomic.Int64) error {
	r.lk.Acquire(th)
	defer r.lk.Release(th)
	ops.Add(1)

	for r.n == len(r.slots) {
		r.notFull.Wait(th, r.lk)
		ops.Add(1)
	}
	r.slots[(r.head+r.n)%len(r.slots)] = v
	r.n++
	r.peak = max(r.peak, r.n)
	if r.n > len(r.slots) {
		return fmt.Errorf("buffer holds %d items, capacity %d", r.n, len(r.slots))
	}
	r.notEmpty.Signal(th, r.lk)
	return nil
}

func (r *ring) get(th *thread.Thread, ops *atomic.Int64) (int, error) {
	r.lk.Acquire(th)
	defer r.lk.Release(th)
	ops.Add(1)

	for r.n == 0 {
		r.notEmpty.Wait(th, r.lk)
		ops.Add(1)
	}
	if r.n < 0 {
		return 0, fmt.Errorf("buffer holds %d items", r.n)
	}
	v := r.slots[r.head]
	r.head = (r.head + 1) % len(r.slots)
	r.n--
	r.notFull.Signal(th, r.lk)
	return v, nil
}

// bufferTest (sy4) runs producers and consumers through a bounded buffer
// of cfg.Capacity slots. Half the threads produce cfg.Loops items each;
// the rest consume them all between them. The sum consumed must equal the
// sum produced and the buffer must never exceed its capacity.
func bufferTest(ctx context.Context, cfg Config) (int64, error) {
	f := newFixture(cfg)
	f.opts.StrictCV = true
	r := &ring{
		lk:       f.lock("bufferlock"),
		notFull:  f.cv("notfull"),
		notEmpty: f.cv("notempty"),
		slots:    make([]int, cfg.Capacity),
	}
	if f.err != nil {
		f.close()
		return 0, f.err
	}

	producers := cfg.Threads / 2
	consumers := cfg.Threads - producers
	total := producers * cfg.Loops

	var ops, produced, consumed atomic.Int64
	g, _ := thread.NewGroup(ctx)
	for p := 0; p < producers; p++ {
		g.Fork(fmt.Sprintf("producer%d", p), func(th *thread.Thread) error {
			for i := 1; i <= cfg.Loops; i++ {
				v := p*cfg.Loops + i
				if err := r.put(th, v, &ops); err != nil {
					return err
				}
				produced.Add(int64(v))
			}
			return nil
		})
	}
	for c := 0; c < consumers; c++ {
		share := total / consumers
		if c < total%consumers {
			share++
		}
		g.Fork(fmt.Sprintf("consumer%d", c), func(th *thread.Thread) error {
			for i := 0; i < share; i++ {
				v, err := r.get(th, &ops)
				if err != nil {
					return err
				}
				consumed.Add(int64(v))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ops.Load(), err
	}

	if p, c := produced.Load(), consumed.Load(); p != c {
		return ops.Load(), fmt.Errorf("produced sum %d, consumed sum %d", p, c)
	}
	if r.n != 0 {
		return ops.Load(), fmt.Errorf("%d items left in buffer", r.n)
	}
	if r.peak > cfg.Capacity {
		return ops.Load(), fmt.Errorf("buffer peaked at %d items, capacity %d", r.peak, cfg.Capacity)
	}

	f.close()
	return ops.Load(), nil
}
