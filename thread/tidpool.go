package thread

import (
	"math"

	"github.com/kolkov/ksynch/internal/kassert"
)

// MaxThreads is the number of thread ids that can be live at once.
const MaxThreads = math.MaxUint16 + 1

// tidPool hands out small integer thread ids and recycles them on Exit.
//
// Ids index vector clocks, so keeping them dense keeps clocks short. Freed
// ids are reused FIFO, which keeps recently exited ids out of circulation
// for as long as possible. A recycled id resumes from the clock value its
// previous owner reached, so epochs of the new owner are never mistaken
// for ones some primitive has already seen.
type tidPool struct {
	mu   mutex
	next int
	free []freeID
}

type freeID struct {
	tid   uint16
	clock uint32
}

var tids tidPool

// alloc returns a free id and the last clock value reached under it.
func (p *tidPool) alloc() (uint16, uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) > 0 {
		f := p.free[0]
		p.free = p.free[1:]
		return f.tid, f.clock
	}

	kassert.Thatf(p.next < MaxThreads, "thread_create", "", "more than %d live threads", MaxThreads)
	tid := uint16(p.next) //nolint:gosec // G115: bounded by MaxThreads above
	p.next++
	return tid, 0
}

func (p *tidPool) release(tid uint16, clock uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, freeID{tid: tid, clock: clock})
}

// live reports how many ids are currently handed out.
func (p *tidPool) live() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.next - len(p.free)
}
