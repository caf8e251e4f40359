//go:build !deadlock

package thread

import "sync"

// DeadlockDetection reports whether the package mutex is the
// deadlock-detecting variant.
const DeadlockDetection = false

// mutex guards the package's shared bookkeeping (the thread id pool).
type mutex struct {
	sync.Mutex
}
