// Package vectorclock implements vector clocks for happens-before tracing.
//
// Each kernel thread carries a clock; each traced primitive keeps the clock
// captured at its last release. Acquiring joins the release clock into the
// acquirer's clock, which is what lets a test prove that everything done
// before V (or lock_release) is ordered before the matching P (or
// lock_acquire).
//
// Unlike a detector that must cover every goroutine up front, a kernel has
// a handful of threads, so the clock is a slice indexed by thread id that
// grows on demand. Missing entries read as zero.
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock maps thread id to logical time.
//
// The zero value is an empty clock (all threads at time 0).
type VectorClock struct {
	c []uint32
}

// New returns an empty clock.
func New() *VectorClock {
	return &VectorClock{}
}

// Clone returns a deep copy.
func (vc *VectorClock) Clone() *VectorClock {
	clone := &VectorClock{c: make([]uint32, len(vc.c))}
	copy(clone.c, vc.c)
	return clone
}

// CopyFrom overwrites vc with other, reusing vc's storage.
func (vc *VectorClock) CopyFrom(other *VectorClock) {
	vc.grow(len(other.c))
	n := copy(vc.c, other.c)
	clear(vc.c[n:])
}

// Join performs point-wise maximum: vc = vc ⊔ other.
func (vc *VectorClock) Join(other *VectorClock) {
	vc.grow(len(other.c))
	for i, t := range other.c {
		if t > vc.c[i] {
			vc.c[i] = t
		}
	}
}

// LessOrEqual reports vc ⊑ other: vc[i] <= other[i] for every thread i.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i, t := range vc.c {
		if t > other.Get(uint16(i)) { //nolint:gosec // G115: len bounded by MaxThreads
			return false
		}
	}
	return true
}

// HappensBefore is LessOrEqual under its ordering name.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances thread tid's entry by one.
func (vc *VectorClock) Increment(tid uint16) {
	vc.grow(int(tid) + 1)
	vc.c[tid]++
}

// Get returns thread tid's entry.
func (vc *VectorClock) Get(tid uint16) uint32 {
	if int(tid) >= len(vc.c) {
		return 0
	}
	return vc.c[tid]
}

// Set stores clock as thread tid's entry.
func (vc *VectorClock) Set(tid uint16, clock uint32) {
	vc.grow(int(tid) + 1)
	vc.c[tid] = clock
}

// Reset zeroes every entry for thread tid reuse.
func (vc *VectorClock) Reset() {
	clear(vc.c)
}

// String renders the non-zero entries, e.g. "{0:50, 1:30, 5:42}".
func (vc *VectorClock) String() string {
	var parts []string
	for i, t := range vc.c {
		if t != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(uint64(t), 10))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (vc *VectorClock) grow(n int) {
	if n > len(vc.c) {
		vc.c = append(vc.c, make([]uint32, n-len(vc.c))...)
	}
}
