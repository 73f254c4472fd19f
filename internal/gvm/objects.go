package gvm

import "github.com/kstephano-gvm/coreloop/internal/bigint"

// Stable is the metadata shared by every instance of a type: its
// representation, methods, containerization and HLL owner (spec.md
// GLOSSARY "Stable"). rebless (spec.md §4.3 "Object operations") swaps an
// object's Stable pointer, which is exactly what forces deopt_all — any
// sp_* guard that assumed a shape may now be checking against a Stable
// that no longer matches.
type Stable struct {
	Name string
	Repr Representation
	MethodCache *MethodCache
	HLLOwner    string
	TypeCheckCache []*TypeObject // see DESIGN.md "(b) settypecache"
}

// Representation is the function table a concrete storage layout exposes:
// positional and associative access, attribute get/bind, clone, and the
// boxing primitives. Every object operation (spec.md §4.3 "Object
// operations", "Boxing/unboxing") dispatches through these rather than
// hardcoding a layout in the interpreter.
type Representation interface {
	Name() string
	Allocate(st *Stable) *Obj
	CloneInto(dst, src *Obj)
	GetAttrByIdx(o *Obj, idx int) Register
	BindAttrByIdx(o *Obj, idx int, v Register)
	GetAttrByName(o *Obj, name string) (Register, bool)
	BindAttrByName(o *Obj, name string, v Register)
	PosGet(o *Obj, i int64) (Register, bool)
	PosBind(o *Obj, i int64, v Register)
	AssocGet(o *Obj, key string) (Register, bool)
	AssocBind(o *Obj, key string, v Register)
}

// Obj is a managed object. Interpreter code never holds these directly in
// a way that survives a safe-point — registers hold a handle (index) into
// the GC collaborator's object table instead (spec.md §3 invariants, §5
// "From-space assertions").
type Obj struct {
	Stable *Stable
	Who    *Obj
	Attrs  map[string]Register
	Pos    []Register
	Assoc  map[string]Register
	// FromSpace is flipped true by the GC during a collection cycle and
	// cleared once the object is confirmed copied; debug builds assert
	// it's false on every read (spec.md §5).
	FromSpace bool

	// Iterator state, populated only on objects produced by the `iter`
	// opcode (spec.md §4.3 "Iteration"). IterKeys is non-nil for an
	// associative iterator; nil selects the positional path over the
	// source's Pos, indexed by IterIndex.
	IterSource uint32
	IterIndex  int
	IterKeys   []string

	// Big holds an arbitrary-precision integer for objects produced by the
	// bigint and sp_add_I/sub_I/mul_I opcode families (spec.md §4.3
	// "Big-integer arithmetic", §4.6 "small-value big-int fast path").
	Big *bigint.Int
}

// TypeObject is a boot/user type: name plus its Stable.
type TypeObject struct {
	Name   string
	Stable *Stable
}

// MethodCache backs sp_findmeth (spec.md §4.3 "sp_findmeth (method cache:
// compare-stable-then-use-cached-code)"). Each Stable owns one cache keyed
// by method name. Nothing invalidates entries: DeoptAll clears frame
// specialization candidates only and leaves method caches as they are.
type MethodCache struct {
	byName map[string]*CodeRef
}

func NewMethodCache() *MethodCache { return &MethodCache{byName: map[string]*CodeRef{}} }

func (m *MethodCache) Lookup(name string) (*CodeRef, bool) {
	c, ok := m.byName[name]
	return c, ok
}

func (m *MethodCache) Store(name string, code *CodeRef) { m.byName[name] = code }

// CodeRef is a resolved, invokable code object: either a StaticFrame this
// interpreter can invoke directly, or (for nativecall) an external symbol.
type CodeRef struct {
	Static *StaticFrame
	Invoke InvokeFunc
}

// InvokeFunc installs a new frame for a call and redirects the thread
// context's published pointers (spec.md §4.4 step 3: "Delegates to the
// callee's stable invoke function"). Returning an error aborts the call
// with an adhoc error.
type InvokeFunc func(tc *ThreadContext, caller *Frame, pending PendingCall) error
