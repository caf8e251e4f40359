package synch

import (
	"github.com/kolkov/ksynch/internal/syncshadow"
	"github.com/kolkov/ksynch/kmem"
)

// Options configures a primitive at construction.
//
// The zero value is the default configuration.
type Options struct {
	// Arena supplies the primitive's memory. nil means kmem.Default.
	Arena *kmem.Arena

	// Trace records happens-before edges for permit and lock handoffs in
	// the threads' clocks.
	Trace bool

	// StrictCV makes CV.Signal and CV.Broadcast assert that the caller
	// holds the lock passed to them. Without it the lock argument is only
	// documentation. Ignored by Semaphore and Lock.
	StrictCV bool
}

func (o Options) arena() *kmem.Arena {
	if o.Arena == nil {
		return kmem.Default
	}
	return o.Arena
}

func (o Options) shadow() *syncshadow.SyncVar {
	if !o.Trace {
		return nil
	}
	return syncshadow.New()
}
