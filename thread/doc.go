// Package thread provides the execution context that blocking
// synchronization runs on.
//
// A *Thread is the explicit handle passed into every semaphore, lock and
// condition variable operation. It answers the two questions those
// operations must ask before they are allowed to block:
//
//   - who is the caller (identity, compared by pointer), and
//   - is the caller running in interrupt context (where it cannot sleep).
//
// It also keeps the per-thread bookkeeping the primitives assert on: how
// many spinlocks the thread holds, and a vector clock used when
// happens-before tracing is enabled.
//
// Threads are plain goroutines. New binds a handle to the calling
// goroutine so Current can find it again; Group forks named threads on top
// of golang.org/x/sync/errgroup:
//
//	g, _ := thread.NewGroup(context.Background())
//	for i := 0; i < 4; i++ {
//		g.Fork(fmt.Sprintf("worker-%d", i), func(t *thread.Thread) error {
//			lk.Acquire(t)
//			defer lk.Release(t)
//			counter++
//			return nil
//		})
//	}
//	if err := g.Wait(); err != nil {
//		log.Fatal(err)
//	}
//
// Interrupt context is simulated: EnterInterrupt/ExitInterrupt mark the
// stretch of code a harness treats as an interrupt handler.
//
// Build with -tags=deadlock to swap the package's internal mutex for
// github.com/sasha-s/go-deadlock.
package thread
