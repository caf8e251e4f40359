//go:build deadlock

package thread

import "github.com/sasha-s/go-deadlock"

// DeadlockDetection reports whether the package mutex is the
// deadlock-detecting variant.
const DeadlockDetection = true

// mutex guards the package's shared bookkeeping (the thread id pool).
// Under the deadlock tag it reports lock-order inversions and long waits.
type mutex struct {
	deadlock.Mutex
}
