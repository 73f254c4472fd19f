package gvm

// ArgFlag describes one positional/named argument slot in a Callsite
// (spec.md §3 "Callsite"): kind x required/optional/flat/named.
type ArgFlag uint8

const (
	ArgInt ArgFlag = 1 << iota
	ArgNum
	ArgStr
	ArgObj
	ArgOptional
	ArgFlat
	ArgNamed
)

// Callsite is an immutable descriptor of a call shape, shared by reference
// across callers whose argument shape is identical. Compilation units
// intern these so that two call sites with the same shape point at the
// same *Callsite value — the multi-dispatch cache hook (CallProtocol,
// spec.md §4.4) keys off that identity.
type Callsite struct {
	Positional int
	Total      int
	Flags      []ArgFlag
	Names      []string // parallel to the named tail of Flags
}

func (cs *Callsite) NumNamed() int { return len(cs.Names) }

// SpecializationCandidate is an optional per-frame attachment describing a
// speculatively optimized variant of a static frame (spec.md §3
// "Specialization Candidate", §4.6). A frame with a non-nil candidate is
// "specialized": the sp_* opcode family addresses effectiveSpeshSlots by
// index instead of re-resolving constants each time.
type SpecializationCandidate struct {
	// LocalKinds/LexicalKinds override the static frame's declared kinds
	// for debug-build register-kind assertions (spec.md §3 invariants).
	LocalKinds   []RegKind
	LexicalKinds []RegKind

	// EffectiveSpeshSlots holds pre-resolved constants addressed by index
	// from sp_getspeshslot and friends.
	EffectiveSpeshSlots []SpeshSlot

	// Guards records, for diagnostics/tests, which guard opcodes this
	// candidate has executed and whether they held.
	Guards []GuardRecord

	// DeoptTargets maps a deopt index (as encoded in a guard opcode's
	// operand) to the equivalent unoptimized bytecode offset to resume at.
	DeoptTargets map[uint32]uint32
}

// SpeshSlotKind tags the payload kind held in an effective spesh slot
// (spec.md §9 "Specialization slots" — a tagged variant recovers type
// safety over what would otherwise be a type-erased array).
type SpeshSlotKind uint8

const (
	SlotStable SpeshSlotKind = iota
	SlotStaticFrame
	SlotCode
	SlotObject
	SlotString
	SlotInt64
)

type SpeshSlot struct {
	Kind  SpeshSlotKind
	Int   int64
	Str   string
	Obj   uint32
	Frame *StaticFrame
}

type GuardRecord struct {
	Opcode   Opcode
	Matched  bool
	DeoptIdx uint32
}

// StaticFrame is the compile-time metadata shared by every activation of a
// subroutine: its bytecode, string pool, declared register/lexical kinds,
// and (once the optimizer has run) zero or more specialization candidates.
type StaticFrame struct {
	Name         string
	Bytecode     []byte
	StringPool   []string
	NumRegisters int
	LocalKinds   []RegKind
	LexicalNames []string
	LexicalKinds []RegKind
	Candidates   []*SpecializationCandidate
	CU           *CompilationUnit
}

// CompilationUnit is a loaded bytecode module: string pool, code refs, and
// the HLL variant it was compiled for (spec.md GLOSSARY "Compilation unit").
type CompilationUnit struct {
	HLL          string
	StringPool   []string
	Frames       []*StaticFrame
	Callsites    []*Callsite
	ExtOpTable   map[Opcode]ExtensionOp
	SerialCtxIdx map[*SerializationContext]int32
}

// ExtensionOp describes an opcode number at or above the reserved
// extension base: a C-style callback and the operand byte width the
// dispatcher advances by if the callback doesn't move the cursor itself
// (spec.md §6 "Bytecode stream").
type ExtensionOp struct {
	OperandBytes int
	Callback     func(tc *ThreadContext) error
}
