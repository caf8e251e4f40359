// Package epoch implements compact (thread, clock) timestamps.
//
// An epoch names one point in one thread's history. Checking it against a
// vector clock is O(1), which is how a traced primitive answers "did the
// last release happen before this acquire?" without comparing whole clocks.
package epoch

import (
	"strconv"

	"github.com/kolkov/ksynch/internal/vectorclock"
)

// Epoch packs a 16-bit thread id above a 32-bit clock.
// Layout: [unused:16][TID:16][Clock:32]
type Epoch uint64

// ClockBits is the width of the clock field.
const ClockBits = 32

// NewEpoch creates an epoch from thread id and clock value.
func NewEpoch(tid uint16, clock uint32) Epoch {
	return Epoch(uint64(tid)<<ClockBits | uint64(clock))
}

// Decode splits the epoch into thread id and clock.
func (e Epoch) Decode() (tid uint16, clock uint32) {
	//nolint:gosec // G115: fields are extracted by construction
	return uint16(e >> ClockBits), uint32(e)
}

// HappensBefore reports whether e is ordered before the point vc describes:
// clock <= vc[tid].
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// String renders "clock@tid".
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(uint64(clock), 10) + "@" + strconv.FormatUint(uint64(tid), 10)
}
