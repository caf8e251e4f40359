// Package syncshadow records the happens-before edges created by the
// synchronization primitives.
//
// Each traced primitive owns a SyncVar holding its release clock: the
// vector clock of the last thread(s) to hand something over through it.
//
//	Acquire(m):      Ct := Ct ⊔ Lm   (thread joins the primitive's clock)
//	                 Ct[t]++
//
//	Release(m):      Lm := Ct        (lock handoff: one releaser)
//	                 Ct[t]++
//
//	ReleaseMerge(m): Lm := Lm ⊔ Ct   (semaphore V: permits from several
//	                 Ct[t]++          threads may be pending at once)
//
// Where Ct is the clock of thread t, Lm is the release clock of primitive m
// and ⊔ is the element-wise maximum.
//
// After a P that consumed a permit posted by a V, the V's epoch happens
// before the P's clock; after a lock handoff, everything the previous holder
// did before Release happens before everything the new holder does.
//
// A SyncVar is not safe for concurrent use on its own. Callers update it
// while holding the primitive's spinlock. A nil *SyncVar is valid and every
// method on it is a no-op, so untraced primitives simply carry nil.
package syncshadow
