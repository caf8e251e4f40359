package syncshadow

import (
	"github.com/kolkov/ksynch/internal/vectorclock"
	"github.com/kolkov/ksynch/thread"
)

// SyncVar is the release clock of one primitive.
type SyncVar struct {
	// releaseClock is nil until the first release.
	releaseClock *vectorclock.VectorClock

	releases uint64
	acquires uint64
}

// New returns an empty SyncVar.
func New() *SyncVar {
	return &SyncVar{}
}

// Acquire joins the release clock into t's clock and starts a new epoch
// for t.
func (sv *SyncVar) Acquire(t *thread.Thread) {
	if sv == nil {
		return
	}
	if sv.releaseClock != nil {
		t.Clock().Join(sv.releaseClock)
	}
	sv.acquires++
	t.Tick()
}

// Release replaces the release clock with t's clock and starts a new epoch
// for t.
func (sv *SyncVar) Release(t *thread.Thread) {
	if sv == nil {
		return
	}
	if sv.releaseClock == nil {
		sv.releaseClock = t.Clock().Clone()
	} else {
		sv.releaseClock.CopyFrom(t.Clock())
	}
	sv.releases++
	t.Tick()
}

// ReleaseMerge joins t's clock into the release clock and starts a new
// epoch for t. Earlier releases stay visible to the next acquirer.
func (sv *SyncVar) ReleaseMerge(t *thread.Thread) {
	if sv == nil {
		return
	}
	if sv.releaseClock == nil {
		sv.releaseClock = t.Clock().Clone()
	} else {
		sv.releaseClock.Join(t.Clock())
	}
	sv.releases++
	t.Tick()
}

// ReleaseClock returns a copy of the release clock, or nil if nothing has
// been released yet.
func (sv *SyncVar) ReleaseClock() *vectorclock.VectorClock {
	if sv == nil || sv.releaseClock == nil {
		return nil
	}
	return sv.releaseClock.Clone()
}

// Stats returns how many releases and acquires have been recorded.
func (sv *SyncVar) Stats() (releases, acquires uint64) {
	if sv == nil {
		return 0, 0
	}
	return sv.releases, sv.acquires
}
