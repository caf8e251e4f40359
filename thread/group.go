package thread

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/ksynch/internal/kassert"
)

// Group forks named threads and waits for them.
//
// It is an errgroup.Group whose functions receive their own *Thread. A
// fatal assertion inside a forked thread does not take the process down;
// it is returned from Wait wrapped in an error so a test harness can
// inspect it with errors.As. Any other panic propagates.
type Group struct {
	eg *errgroup.Group
}

// NewGroup returns a Group and a context canceled when the first forked
// thread returns an error or Wait returns.
//
// Blocking primitives do not observe the context; it is for thread bodies
// that want to stop early between blocking calls.
func NewGroup(ctx context.Context) (*Group, context.Context) {
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{eg: eg}, ctx
}

// SetLimit bounds the number of threads running at once. Fork blocks while
// the limit is reached. A negative limit removes the bound.
func (g *Group) SetLimit(n int) {
	g.eg.SetLimit(n)
}

// Fork starts fn on a new thread called name.
func (g *Group) Fork(name string, fn func(t *Thread) error) {
	g.eg.Go(func() (err error) {
		t := New(name)
		defer func() {
			r := recover()
			if r == nil {
				t.Exit()
				return
			}
			v, ok := kassert.As(r)
			if !ok {
				panic(r)
			}
			// The thread died mid-operation, possibly holding spinlocks;
			// unbind it without the exit checks.
			t.exited.Store(true)
			unbind(t)
			tids.release(t.tid, t.clock.Get(t.tid))
			err = fmt.Errorf("thread %s: %w", t, v)
		}()
		return fn(t)
	})
}

// Wait blocks until every forked thread has returned and reports the first
// error, if any.
func (g *Group) Wait() error {
	return g.eg.Wait()
}
