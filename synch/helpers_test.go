package synch_test

import (
	"testing"
	"time"

	"github.com/kolkov/ksynch/synch"
)

// expectViolation runs fn and fails the test unless it raises a fatal
// violation from op.
func expectViolation(t *testing.T, op string, fn func()) *synch.InvariantViolation {
	t.Helper()

	var (
		v  *synch.InvariantViolation
		ok bool
	)
	func() {
		defer func() {
			r := recover()
			v, ok = synch.AsInvariantViolation(r)
			if r != nil && !ok {
				panic(r)
			}
		}()
		fn()
	}()

	if !ok {
		t.Fatalf("expected %s violation, none raised", op)
	}
	if v.Op != op {
		t.Fatalf("violation op = %q, want %q (%s)", v.Op, op, v.Msg)
	}
	return v
}

// stillBlocked fails the test if done is closed within a short grace
// period.
func stillBlocked(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
		t.Fatalf("%s returned without being woken", what)
	case <-time.After(20 * time.Millisecond):
	}
}

// eventually fails the test if done is not closed within a generous
// deadline.
func eventually(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s never returned", what)
	}
}

func iterations(full int) int {
	if testing.Short() {
		return full / 10
	}
	return full
}
