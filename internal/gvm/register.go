// Package gvm is the core interpreter dispatch loop: decoder, dispatcher,
// opcode handlers, call protocol and exception bridge for a register-based
// bytecode VM. Collaborators (GC, big integers, strings, native calls,
// serialization, the HLL instance) live in sibling packages and are reached
// through small interfaces so this package stays the hot loop and nothing
// else.
package gvm

import "math"

// RegKind is the view an opcode imposes on a Register's 64-bit pattern.
// The interpreter never infers a view from the bits themselves — the
// opcode always says which kind it wants (spec.md §3 "Register").
type RegKind uint8

const (
	KindVoid RegKind = iota
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindN32
	KindN64
	KindStr
	KindObj
)

func (k RegKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindN32:
		return "n32"
	case KindN64:
		return "n64"
	case KindStr:
		return "str"
	case KindObj:
		return "obj"
	default:
		return "?unknown-kind?"
	}
}

// Register is a 64-bit slot plus a kind tag, viewed polymorphically
// depending on the opcode that reads it. Str/Obj registers hold an index
// into the Instance's object/code/stable tables rather than a raw pointer, so the GC
// collaborator (internal/gc) can relocate the referent without the
// interpreter's C-local copies going stale.
type Register struct {
	bits uint64
	kind RegKind
}

func RegFromI64(v int64) Register { return Register{bits: uint64(v), kind: KindI64} }
func RegFromU64(v uint64) Register { return Register{bits: v, kind: KindU64} }
func RegFromI32(v int32) Register { return Register{bits: uint64(uint32(v)), kind: KindI32} }
func RegFromU32(v uint32) Register { return Register{bits: uint64(v), kind: KindU32} }
func RegFromN64(v float64) Register { return Register{bits: math.Float64bits(v), kind: KindN64} }
func RegFromN32(v float32) Register { return Register{bits: uint64(math.Float32bits(v)), kind: KindN32} }
func RegFromObj(handle uint32) Register { return Register{bits: uint64(handle), kind: KindObj} }
func RegFromStr(handle uint32) Register { return Register{bits: uint64(handle), kind: KindStr} }

func (r Register) Kind() RegKind { return r.kind }

func (r Register) I64() int64   { return int64(r.bits) }
func (r Register) U64() uint64  { return r.bits }
func (r Register) I32() int32   { return int32(uint32(r.bits)) }
func (r Register) U32() uint32  { return uint32(r.bits) }
func (r Register) N64() float64 { return math.Float64frombits(r.bits) }
func (r Register) N32() float32 { return math.Float32frombits(uint32(r.bits)) }

// ObjHandle returns the managed-object table index this register refers to.
// Valid only when Kind() == KindObj.
func (r Register) ObjHandle() uint32 { return uint32(r.bits) }

// StrHandle returns the managed-string table index this register refers to.
// Valid only when Kind() == KindStr.
func (r Register) StrHandle() uint32 { return uint32(r.bits) }

// Truthy implements per-kind truthiness for if_*/unless_* handlers
// (spec.md §4.3 "Control flow").
func (r Register) Truthy() bool {
	switch r.kind {
	case KindN32:
		return r.N32() != 0
	case KindN64:
		return r.N64() != 0
	case KindStr, KindObj:
		return r.bits != 0
	default:
		return r.bits != 0
	}
}
