// Package stackdepot stores deduplicated call stacks for diagnostics.
//
// Locks record where they were acquired so that a later contract violation
// (double acquire, destroying a held lock) can say who holds the lock and
// from where. Fatal assertions record the stack at the point of failure.
// Both paths go through the depot so a hot acquire site costs one hash and
// one map lookup, not an allocation per acquire.
//
// Usage:
//
//	site := stackdepot.CaptureStack()
//	...
//	fmt.Print(stackdepot.GetStack(site).FormatStack())
package stackdepot

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// MaxFrames is the number of frames kept per stack.
const MaxFrames = 8

// StackTrace is a captured stack of fixed depth.
type StackTrace struct {
	PC [MaxFrames]uintptr
}

// depot maps an FNV-1a hash of the program counters to its *StackTrace.
var depot sync.Map

// CaptureStack records the caller's stack and returns its handle.
//
// The returned handle is 0 if no frames were available.
func CaptureStack() uint64 {
	return capture(3)
}

// CaptureStackSkip records the stack starting skip frames above the caller
// of CaptureStackSkip. CaptureStackSkip(0) is equivalent to CaptureStack.
func CaptureStackSkip(skip int) uint64 {
	return capture(3 + skip)
}

func capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])
	if _, exists := depot.Load(hash); exists {
		return hash
	}
	depot.Store(hash, &StackTrace{PC: pcs})
	return hash
}

// GetStack returns the stack recorded under hash, or nil.
func GetStack(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	val, ok := depot.Load(hash)
	if !ok {
		return nil
	}
	return val.(*StackTrace)
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // G103: reading the PC value as bytes for hashing
		pcBytes := (*[8]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(pcBytes)
	}
	return h.Sum64()
}

// FormatStack renders the stack one frame per two lines:
//
//	github.com/kolkov/ksynch/synch.(*Lock).Acquire()
//	    /src/ksynch/synch/lock.go:97
//
// runtime frames are dropped. A nil receiver renders as "<unknown>".
func (st *StackTrace) FormatStack() string {
	if st == nil {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(st.PC[:])

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}

// Reset empties the depot. Only for single-threaded test setup.
func Reset() {
	depot = sync.Map{}
}

// Stats reports the number of distinct stacks stored and an estimate of
// their memory footprint.
func Stats() (uniqueStacks int, totalMemory int64) {
	depot.Range(func(_, _ any) bool {
		uniqueStacks++
		return true
	})
	const bytesPerStack = MaxFrames*8 + 32
	return uniqueStacks, int64(uniqueStacks) * bytesPerStack
}
