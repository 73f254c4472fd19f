package gvm

// GCCollaborator is the contract the dispatch core requires of the garbage
// collector (spec.md §1 "the garbage collector" is explicitly out of
// scope; this is the fixed contract §6 promises). internal/gc implements
// it with a semispace copying collector; tests may swap in a no-op fake.
type GCCollaborator interface {
	// SafePoint is called at every backward/unconditional branch and every
	// branch-based conditional (spec.md §5 "GC safe-points"). If a
	// collection has been requested, the calling thread parks until it
	// completes.
	SafePoint(tc *ThreadContext)

	// WriteBarrier must be invoked on every store of a managed reference
	// into an object, frame-external location, or Stable (spec.md §5
	// "Write barrier"). Storing into the current frame's own
	// Registers/Lexicals slice does not need it — those live with the
	// frame in the nursery.
	WriteBarrier(holder *Obj, newValue Register)

	// AssertNotFromSpace backs the debug-build from-space assertion
	// (spec.md §5): every register/lexical read of an object/string
	// reference must verify the referent was not left behind by a copy.
	AssertNotFromSpace(o *Obj)

	// RootTemporary/UnrootTemporary bracket a call that may allocate while
	// a handler still holds a raw reference in a Go local (spec.md §5
	// "Temporary rooting"). RootTemporary returns a token to pass back to
	// UnrootTemporary, and the (possibly relocated) up-to-date handle to
	// re-read afterward.
	RootTemporary(o *Obj) (token int, current *Obj)
	UnrootTemporary(token int)

	// Allocate/AllocateFast implement object creation; AllocateFast is the
	// sp_fastcreate nursery bump-pointer path for a known size+Stable.
	Allocate(st *Stable) *Obj
	AllocateFast(st *Stable, size int) *Obj

	// BoxSmallInt serves sp_fastbox_i_ic / sp_fastbox_bi_ic: values in
	// [-1, 14] must return the same cached *Obj by identity across calls
	// (spec.md §4.6, Testable Property 10).
	BoxSmallInt(v int64) *Obj
}
