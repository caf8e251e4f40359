// Package kmem is the allocation collaborator used to construct
// synchronization primitives.
//
// Go's allocator does not fail, but a kernel's does, and a primitive's
// constructor must leave nothing behind when one of its sub-allocations
// fails. Arena makes that observable: it accounts every live block, can be
// given a byte budget, and can be told to fail the Nth allocation from now.
//
//	a := kmem.NewArena(0) // unlimited
//	a.FailAfter(2)        // third allocation fails
//	_, err := synch.NewLockWithOptions("lk", synch.Options{Arena: a})
//	// errors.Is(err, kmem.ErrNoMemory) && a.Live() == 0
package kmem

import (
	"errors"
	"sync"

	"github.com/kolkov/ksynch/internal/kassert"
)

// ErrNoMemory is returned when an allocation cannot be satisfied.
var ErrNoMemory = errors.New("out of memory")

// Block is one live allocation.
type Block struct {
	arena *Arena
	size  int64
	freed bool
}

// Size returns the block's size in bytes.
func (b *Block) Size() int64 {
	return b.size
}

// Arena is a fallible allocator with accounting.
//
// Thread Safety: all methods are safe for concurrent use.
type Arena struct {
	mu     sync.Mutex
	limit  int64
	inUse  int64
	live   int
	total  int
	failIn int // allocations left before an injected failure; <0 disables
}

// Default is the unlimited arena used when no arena is configured.
var Default = NewArena(0)

// NewArena returns an arena that refuses allocations pushing usage above
// limit bytes. A limit of 0 means unlimited.
func NewArena(limit int64) *Arena {
	return &Arena{limit: limit, failIn: -1}
}

// FailAfter lets the next n allocations through and fails the one after
// with ErrNoMemory. FailAfter(0) fails the very next allocation; a negative
// n cancels a pending injection. The injection fires once.
func (a *Arena) FailAfter(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failIn = n
}

// Alloc reserves size bytes.
func (a *Arena) Alloc(size int64) (*Block, error) {
	kassert.Thatf(size >= 0, "kmalloc", "", "negative size %d", size)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failIn == 0 {
		a.failIn = -1
		return nil, ErrNoMemory
	}
	if a.failIn > 0 {
		a.failIn--
	}
	if a.limit > 0 && a.inUse+size > a.limit {
		return nil, ErrNoMemory
	}

	a.inUse += size
	a.live++
	a.total++
	return &Block{arena: a, size: size}, nil
}

// Free releases a block. Freeing twice, or into the wrong arena, is fatal.
// Free(nil) is a no-op.
func (a *Arena) Free(b *Block) {
	if b == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	kassert.That(b.arena == a, "kfree", "", "block freed into foreign arena")
	kassert.That(!b.freed, "kfree", "", "double free")
	b.freed = true
	a.inUse -= b.size
	a.live--
}

// Strdup returns an owned copy of s, charged to the arena as len(s)+1
// bytes. The copy is released by freeing the returned block.
func (a *Arena) Strdup(s string) (string, *Block, error) {
	b, err := a.Alloc(int64(len(s)) + 1)
	if err != nil {
		return "", nil, err
	}
	return string(append([]byte(nil), s...)), b, nil
}

// InUse returns the number of bytes currently allocated.
func (a *Arena) InUse() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.inUse
}

// Live returns the number of blocks currently allocated.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.live
}

// Total returns the number of successful allocations over the arena's life.
func (a *Arena) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.total
}
