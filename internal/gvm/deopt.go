package gvm

// Deoptimization (spec.md §4.6, §7 kind 3). deopt_one discards a single
// frame's specialization candidate and resumes it in the unspecialized
// bytecode at the candidate's recorded target for the guard index that
// failed; deopt_all is rebless's hammer — every live frame across the
// thread (and, in a multi-threaded VM, every other thread's stack, which
// is out of scope here since one ThreadContext only ever sees its own
// call chain) loses its candidate.
//
// Deopt unwinds like an exception but carries no error and is never
// caught by a user handler (spec.md §7: "deoptimization ... shares the
// same unwind machinery but is not an error").

// DeoptOne discards frame f's specialization candidate and repositions its
// PC at the unoptimized target recorded for deoptIdx.
func DeoptOne(tc *ThreadContext, f *Frame, deoptIdx uint32) {
	if f.Candidate == nil {
		return
	}
	target, ok := f.Candidate.DeoptTargets[deoptIdx]
	f.Candidate = nil
	if ok {
		f.PC = int(target)
	}
}

// DeoptAll walks the current thread's entire frame chain from tc.CurFrame
// to the root and discards every candidate it finds, repositioning each
// such frame's PC at deopt index 0 (the whole-frame bail-out target every
// specialized StaticFrame records alongside its per-guard targets).
func DeoptAll(tc *ThreadContext) {
	for cur := tc.CurFrame; cur != nil; cur = cur.Caller {
		if cur.Candidate == nil {
			continue
		}
		target, ok := cur.Candidate.DeoptTargets[0]
		cur.Candidate = nil
		if ok {
			cur.PC = int(target)
		}
	}
}
