package kmem

// Undo collects release actions for a multi-step construction and runs
// them, newest first, unless the construction commits.
//
//	var undo kmem.Undo
//	defer undo.Run()
//
//	obj, err := a.Alloc(size)
//	if err != nil {
//		return nil, err
//	}
//	undo.Push(func() { a.Free(obj) })
//	... more steps ...
//	undo.Commit()
//	return result, nil
//
// The zero value is ready to use.
type Undo struct {
	steps     []func()
	committed bool
}

// Push records a release action.
func (u *Undo) Push(release func()) {
	u.steps = append(u.steps, release)
}

// Free is Push for an arena block.
func (u *Undo) Free(a *Arena, b *Block) {
	u.Push(func() { a.Free(b) })
}

// Commit keeps everything acquired so far; Run becomes a no-op.
func (u *Undo) Commit() {
	u.committed = true
}

// Run releases everything pushed, in reverse order, unless committed.
func (u *Undo) Run() {
	if u.committed {
		return
	}
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}
