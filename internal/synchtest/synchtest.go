// Package synchtest holds the self tests for the synchronization
// primitives, run from the synchtest command and from go test.
//
// Each test forks a group of threads that hammer one primitive and checks
// an invariant the primitive must uphold:
//
//	sy1  semaphore  a gate semaphore admits exactly one thread per V
//	sy2  lock       values written together under a lock are seen together
//	sy3  cv         threads take turns in an order enforced by a CV
//	sy4  buffer     producers and consumers share a bounded buffer
//
// A test fails with an error describing the first broken invariant. A
// fatal violation inside a thread is reported the same way. After a failure
// the primitives involved are not destroyed, since their state is suspect.
package synchtest

import (
	"context"
	"fmt"
	"time"

	"github.com/kolkov/ksynch/kmem"
	"github.com/kolkov/ksynch/synch"
)

// Config sizes the self tests.
type Config struct {
	// Threads is the number of threads each test forks.
	Threads int

	// Loops is the number of iterations per thread.
	Loops int

	// Capacity is the bounded buffer size for sy4.
	Capacity int

	// Trace enables happens-before tracing on every primitive, and makes
	// sy1 and sy2 also check the recorded ordering.
	Trace bool

	// Arena supplies the primitives' memory. nil means kmem.Default.
	Arena *kmem.Arena
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Threads:  32,
		Loops:    120,
		Capacity: 4,
	}
}

func (c Config) options() synch.Options {
	return synch.Options{Arena: c.Arena, Trace: c.Trace}
}

func (c Config) validate() error {
	switch {
	case c.Threads < 2:
		return fmt.Errorf("need at least 2 threads, have %d", c.Threads)
	case c.Loops < 1:
		return fmt.Errorf("need at least 1 loop, have %d", c.Loops)
	case c.Capacity < 1:
		return fmt.Errorf("need a buffer capacity of at least 1, have %d", c.Capacity)
	}
	return nil
}

// Result is the outcome of one self test.
type Result struct {
	Name    string
	Title   string
	Threads int

	// Ops counts the blocking operations performed (P, Acquire, Wait).
	Ops     int64
	Elapsed time.Duration

	// Err is nil if the test passed.
	Err error
}

// Passed reports whether the test passed.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Test is one runnable self test.
type Test struct {
	Name  string
	Title string
	run   func(ctx context.Context, cfg Config) (ops int64, err error)
}

// Run executes the test.
func (tt Test) Run(ctx context.Context, cfg Config) Result {
	r := Result{Name: tt.Name, Title: tt.Title, Threads: cfg.Threads}
	if err := cfg.validate(); err != nil {
		r.Err = err
		return r
	}

	start := time.Now()
	r.Ops, r.Err = tt.run(ctx, cfg)
	r.Elapsed = time.Since(start)
	return r
}

// Tests lists the self tests in menu order.
var Tests = []Test{
	{Name: "sy1", Title: "semaphore test", run: semaphoreTest},
	{Name: "sy2", Title: "lock test", run: lockTest},
	{Name: "sy3", Title: "cv test", run: cvTest},
	{Name: "sy4", Title: "bounded buffer test", run: bufferTest},
}

// Lookup returns the test with the given name.
func Lookup(name string) (Test, bool) {
	for _, tt := range Tests {
		if tt.Name == name {
			return tt, true
		}
	}
	return Test{}, false
}

// RunAll runs every test in order and returns their results.
func RunAll(ctx context.Context, cfg Config) []Result {
	results := make([]Result, 0, len(Tests))
	for _, tt := range Tests {
		results = append(results, tt.Run(ctx, cfg))
	}
	return results
}
