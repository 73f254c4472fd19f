package gvm

import (
	"go.uber.org/zap"
)

// HandlerEntry is one frame of the active-handler chain exception search
// walks (spec.md §4.3 "Exceptions", §7).
type HandlerEntry struct {
	Kind       ThrowKind
	Category   int32
	Frame      *Frame
	TargetPC   int
	BindObjIdx int // where the exception object should be bound, if any
}

// UnwindRequest is how a collaborator (or an opcode handler itself) tells
// the dispatcher "stop executing here and resume over there" without a
// native nonlocal jump. spec.md §9 "Design Notes" offers this as the
// portable alternative to setjmp/longjmp: a thread-local pending-unwind
// marker the loop checks at each dispatch.
type UnwindRequest struct {
	Active     bool
	TargetFrame *Frame
	TargetPC    int
	// ExceptionObj carries the thrown object handle on the request.
	// settleUnwind clears the whole request when it repositions the frame,
	// and no opcode reads this field.
	ExceptionObj uint32
	HasException bool
	// Err carries an adhoc-error style message when the unwind was not a
	// user-level throw (spec.md §7 kind 1).
	Err error
	// Deopt is true when this unwind is a deoptimization, not an error
	// (spec.md §7 kind 3) — purely cosmetic for tracing, no user effect.
	Deopt bool
}

// ThreadContext is the per-thread anchor (spec.md §3 "Thread Context").
// Exactly one goroutine drives a ThreadContext's dispatch loop at a time;
// collaborators reach into it only through the published pointers and the
// methods below.
type ThreadContext struct {
	ID uint64

	CurFrame *Frame

	// Published pointers (spec.md §6): collaborators redirect execution by
	// writing these, then the loop re-reads them through its cached locals
	// on the next fetch/decode.
	CurOp         int
	BytecodeStart []byte
	RegBase       []Register
	CU            *CompilationUnit

	Unwind UnwindRequest

	// ActiveHandlers is the chain of installed exception handlers,
	// innermost last (PushHandler appends).
	ActiveHandlers []HandlerEntry
	LastHandlerResult Register

	CurDispatcher    string
	CurDispatcherFor string

	// SpeshWriteBarrierDisable counts nested regions where the
	// specialization machinery is mutating frame-local state that does not
	// need a write barrier (spec.md §5 "Write barrier" — locals in the
	// nursery never need it; this counter documents the few cases where a
	// handler would otherwise look like it forgot one).
	SpeshWriteBarrierDisable int

	CompilingSCStack []*SerializationContext

	Instance *Instance

	Blocked bool // set while parked in sem/cond/join/sleep (spec.md §5)

	Log *zap.SugaredLogger

	TracingEnabled *bool // shared process-wide flag, spec.md §6/§9
}

// Instance is the process-global singleton (spec.md §3 "Instance").
type Instance struct {
	BootTypes    map[string]*TypeObject
	NullSentinel *Obj

	HLLSymbols *SymbolTable
	Compilers  map[string]*CompilationUnit

	// StringConstCache/RuntimeStrings back runtime string interning
	// (internString in handlers_iter.go): the cache maps a string to its
	// slot in RuntimeStrings, a pool separate from any compilation unit's
	// compile-time StringPool since runtime-manufactured strings (concat_s,
	// substr_s, uc_s, ...) have no compile-time index to begin with.
	StringConstCache map[string]uint32
	RuntimeStrings   []string
	TinyIntCache     [16]uint32 // filled in by the GC collaborator on boot

	GC GCCollaborator

	EventQueue chan Event

	// Objects/Codes are the process-global handle tables registers of
	// kind Obj index into (spec.md §3 invariants: registers hold a handle,
	// not a raw pointer, so the GC collaborator can relocate the referent
	// without interpreter-held copies going stale). The GC owns relocation;
	// these slices hold each handle's current location.
	Objects []*Obj
	Codes   []*CodeRef
	Stables []*Stable
	stableHandles map[*Stable]uint32
}

// RuntimeStringAt resolves an index previously returned by internString
// (with the runtimeStringFlag bit already stripped by the caller).
func (inst *Instance) RuntimeStringAt(idx uint32) string {
	if int(idx) >= len(inst.RuntimeStrings) {
		return ""
	}
	return inst.RuntimeStrings[idx]
}

// RegisterStable interns st and returns the handle sp_fastcreate/
// sp_guardobj spesh slots carry (spec.md §4.6): the same *Stable always
// gets the same handle, so a guard's recorded handle stays comparable
// across the lifetime of the Instance.
func (inst *Instance) RegisterStable(st *Stable) uint32 {
	if inst.stableHandles == nil {
		inst.stableHandles = map[*Stable]uint32{}
	}
	if h, ok := inst.stableHandles[st]; ok {
		return h
	}
	inst.Stables = append(inst.Stables, st)
	h := uint32(len(inst.Stables) - 1)
	inst.stableHandles[st] = h
	return h
}

func (inst *Instance) StableFor(handle uint32) *Stable {
	if int(handle) >= len(inst.Stables) {
		return nil
	}
	return inst.Stables[handle]
}

func (inst *Instance) ObjHandleOfStable(st *Stable) uint32 {
	return inst.RegisterStable(st)
}

// RegisterObj interns o and returns the handle future Register values of
// kind Obj should carry.
func (inst *Instance) RegisterObj(o *Obj) uint32 {
	inst.Objects = append(inst.Objects, o)
	return uint32(len(inst.Objects) - 1)
}

func (inst *Instance) ObjAt(handle uint32) *Obj {
	if int(handle) >= len(inst.Objects) {
		return nil
	}
	return inst.Objects[handle]
}

// RegisterCode interns an invokable code object and returns the handle a
// register of kind Obj can carry to name it as an invoke_* callee.
func (inst *Instance) RegisterCode(c *CodeRef) uint32 {
	inst.Codes = append(inst.Codes, c)
	return uint32(len(inst.Codes) - 1)
}

func (inst *Instance) CodeAt(handle uint32) *CodeRef {
	if int(handle) >= len(inst.Codes) {
		return nil
	}
	return inst.Codes[handle]
}

type Event struct {
	InterruptAddr uint32
	Data          []byte
	Err           error
}

// ThrowKind selects how a throw propagates (spec.md §4.3 "Exceptions", §7).
type ThrowKind uint8

const (
	ThrowDyn ThrowKind = iota
	ThrowLex
	ThrowLexotic
	ThrowLexCaller
)
