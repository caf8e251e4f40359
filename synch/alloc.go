package synch

import (
	"fmt"

	"github.com/kolkov/ksynch/internal/wchan"
	"github.com/kolkov/ksynch/kmem"
)

// header is the allocation every primitive makes: the object itself, an
// owned copy of its name and its wait channel.
type header struct {
	name  string
	wchan *wchan.WaitChannel

	arena     *kmem.Arena
	self      *kmem.Block
	nameBlock *kmem.Block
}

// alloc builds a header for an object of size bytes. On failure every
// allocation already made is released.
func alloc(kind, name string, size uintptr, arena *kmem.Arena) (header, error) {
	var undo kmem.Undo
	defer undo.Run()

	self, err := arena.Alloc(int64(size))
	if err != nil {
		return header{}, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	undo.Free(arena, self)

	owned, nameBlock, err := arena.Strdup(name)
	if err != nil {
		return header{}, fmt.Errorf("%s %q: name: %w", kind, name, err)
	}
	undo.Free(arena, nameBlock)

	wc, err := wchan.Create(owned, arena)
	if err != nil {
		return header{}, fmt.Errorf("%s %q: wait channel: %w", kind, name, err)
	}

	undo.Commit()
	return header{
		name:      owned,
		wchan:     wc,
		arena:     arena,
		self:      self,
		nameBlock: nameBlock,
	}, nil
}

// free destroys the wait channel and releases the header's memory.
// Destroying the channel asserts nobody is waiting.
func (h *header) free() {
	h.wchan.Destroy()
	h.arena.Free(h.nameBlock)
	h.arena.Free(h.self)
	h.wchan, h.nameBlock, h.self = nil, nil, nil
}
