package gvm

// Profiling hooks (spec.md §4.3 "Profiling hooks"). Opcode numbers live in
// the 0x1200-0x12FF range. All are no-ops unless the package-level
// ProfilingEnabled flag is set; spec.md describes these as "no-ops when off" and nothing in the
// dispatch core depends on their side effects, so there is no collaborator
// interface here — only a package-level counter set a host can inspect.

const (
	opProfEnter     Opcode = 0x1200
	opProfEnterSpesh Opcode = 0x1201
	opProfExit      Opcode = 0x1202
	opProfAllocated Opcode = 0x1203
	opProfReplaced  Opcode = 0x1204
)

func init() {
	registerOp(opProfEnter, "prof_enter", nil, hProfEnter)
	registerOp(opProfEnterSpesh, "prof_enterspesh", nil, hProfEnter)
	registerOp(opProfExit, "prof_exit", nil, hProfExit)
	registerOp(opProfAllocated, "prof_allocated", []OperandKind{OReg}, hProfAllocated)
	registerOp(opProfReplaced, "prof_replaced", []OperandKind{OReg}, hProfReplaced)
}

// ProfilingEnabled gates every handler in this family; false by default so
// production dispatch pays nothing beyond the flag check (spec.md: "no-ops
// when off").
var ProfilingEnabled bool

// ProfileCounters is a coarse, lock-free-enough-for-sampling counter set a
// host can read back for a flat profile. Real flame-graph aggregation is a
// collaborator concern outside the dispatch core.
var ProfileCounters struct {
	Enters     int64
	Exits      int64
	Allocated  int64
	Replaced   int64
}

func hProfEnter(tc *ThreadContext, f *Frame, ops Operands) error {
	if ProfilingEnabled {
		ProfileCounters.Enters++
	}
	return nil
}

func hProfExit(tc *ThreadContext, f *Frame, ops Operands) error {
	if ProfilingEnabled {
		ProfileCounters.Exits++
	}
	return nil
}

func hProfAllocated(tc *ThreadContext, f *Frame, ops Operands) error {
	if ProfilingEnabled {
		ProfileCounters.Allocated++
	}
	return nil
}

func hProfReplaced(tc *ThreadContext, f *Frame, ops Operands) error {
	if ProfilingEnabled {
		ProfileCounters.Replaced++
	}
	return nil
}
