// Package kassert implements the fatal invariant-violation path.
//
// Contract misuse (double acquire, release by a non-owner, blocking in
// interrupt context, destroying a primitive that still has waiters) and
// broken internal invariants are not errors a caller can recover from: the
// synchronization state is already corrupt. Every such check in this module
// funnels through That/Thatf, which panic with a *Violation. Left unrecovered,
// the panic halts the program and prints the diagnostic.
//
// Test harnesses that deliberately provoke misuse recover the panic and use
// As to inspect it:
//
//	defer func() {
//		v, ok := kassert.As(recover())
//		if !ok || v.Op != "lock_release" {
//			t.Fatalf("expected lock_release violation, got %v", v)
//		}
//	}()
//	lk.Release(notOwner)
package kassert

import (
	"fmt"
	"strings"

	"github.com/kolkov/ksynch/internal/stackdepot"
)

// Violation describes a failed kernel assertion.
type Violation struct {
	// Op is the operation that detected the breach (e.g. "P", "lock_acquire").
	Op string

	// Object is the display name of the primitive involved, or "" if none.
	Object string

	// Msg is the failed condition in words.
	Msg string

	// Stack is the formatted call stack at the point of failure.
	Stack string
}

// Error implements the error interface.
//
// Format: "assertion failed: op(object): msg", followed by the stack.
func (v *Violation) Error() string {
	var b strings.Builder
	b.WriteString("assertion failed: ")
	b.WriteString(v.Op)
	if v.Object != "" {
		fmt.Fprintf(&b, "(%s)", v.Object)
	}
	b.WriteString(": ")
	b.WriteString(v.Msg)
	if v.Stack != "" {
		b.WriteString("\n")
		b.WriteString(v.Stack)
	}
	return b.String()
}

// Fail panics with a Violation unconditionally.
//
//go:noinline
func Fail(op, object, msg string) {
	panic(newViolation(op, object, msg))
}

// That panics with a Violation if cond is false.
//
//go:noinline
func That(cond bool, op, object, msg string) {
	if !cond {
		panic(newViolation(op, object, msg))
	}
}

// Thatf is That with a formatted message. The message is only formatted
// when the assertion fails.
//
//go:noinline
func Thatf(cond bool, op, object, format string, args ...any) {
	if !cond {
		panic(newViolation(op, object, fmt.Sprintf(format, args...)))
	}
}

// As reports whether a recovered panic value is a Violation.
//
// It accepts the raw result of recover(), so it is safe to call with nil.
func As(r any) (*Violation, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.(*Violation)
	return v, ok
}

func newViolation(op, object, msg string) *Violation {
	// Skip newViolation and That/Thatf/Fail so the stack starts at the
	// primitive operation that detected the breach.
	st := stackdepot.GetStack(stackdepot.CaptureStackSkip(2))
	return &Violation{
		Op:     op,
		Object: object,
		Msg:    msg,
		Stack:  st.FormatStack(),
	}
}
