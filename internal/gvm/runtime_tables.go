package gvm

// lookupObj/lookupCodeRef resolve the handle tables a Register of kind Obj
// indexes into (spec.md §3 invariants). Both read through the Instance so
// every thread sees the same object/code space.
func lookupObj(tc *ThreadContext, handle uint32) *Obj {
	if tc.Instance == nil {
		return nil
	}
	return tc.Instance.ObjAt(handle)
}

func lookupCodeRef(tc *ThreadContext, handle uint32) *CodeRef {
	if tc.Instance == nil {
		return nil
	}
	return tc.Instance.CodeAt(handle)
}

// runtimeStringFlag marks a string handle as an index into
// Instance.RuntimeStrings rather than the owning frame's compile-time
// StringPool (set by internString in handlers_iter.go). The two pools
// are disjoint index spaces, so a handle needs the flag bit to say which
// one it resolves against.
const runtimeStringFlag uint32 = 1 << 31

func stringFromPool(tc *ThreadContext, f *Frame, idx uint32) string {
	if idx&runtimeStringFlag != 0 {
		if tc.Instance == nil {
			return ""
		}
		return tc.Instance.RuntimeStringAt(idx &^ runtimeStringFlag)
	}
	if f.Static == nil || int(idx) >= len(f.Static.StringPool) {
		return ""
	}
	return f.Static.StringPool[idx]
}

// callsiteTable resolves a prepargs operand against the owning frame's
// compilation unit (spec.md §3 "Callsite": interned per compilation unit so
// identical call shapes share one descriptor).
type callsiteTable struct {
	cu *CompilationUnit
}

func csTableFor(f *Frame) *callsiteTable {
	if f.Static != nil && f.Static.CU != nil {
		return &callsiteTable{cu: f.Static.CU}
	}
	return &callsiteTable{}
}

func (t *callsiteTable) lookup(idx uint16) *Callsite {
	if t.cu == nil || int(idx) >= len(t.cu.Callsites) {
		return &Callsite{}
	}
	return t.cu.Callsites[idx]
}
