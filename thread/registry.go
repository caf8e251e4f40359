package thread

import (
	"strconv"
	"sync"
)

// bound maps goroutine id to the *Thread bound to it.
//
// Lookups vastly outnumber binds, which is the access pattern sync.Map is
// built for.
var bound sync.Map

func bind(t *Thread) {
	bound.Store(t.gid, t)
}

func unbind(t *Thread) {
	bound.CompareAndDelete(t.gid, t)
}

// Current returns the thread bound to the calling goroutine.
//
// A goroutine that never created a thread gets one lazily, named after its
// goroutine id ("g17"). Such implicit threads are never exited
// automatically; goroutines that come and go should use New/Exit or a
// Group instead.
func Current() *Thread {
	gid := goroutineID()
	if val, ok := bound.Load(gid); ok {
		return val.(*Thread)
	}
	return New("g" + strconv.FormatInt(gid, 10))
}

// Live returns the number of threads created and not yet exited.
func Live() int {
	return tids.live()
}
