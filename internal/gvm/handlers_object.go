package gvm

// Object operations (spec.md §4.3 "Object operations"). Opcode numbers
// live in the 0x0600-0x06FF range. rebless is the one opcode in this
// family that reaches outside its own frame: swapping an object's Stable
// invalidates every sp_* guard anywhere on any thread's stack that assumed
// the old shape, so it triggers deopt_all (spec.md §4.6, GLOSSARY
// "rebless").

const (
	opCreate        Opcode = 0x0600
	opClone         Opcode = 0x0601
	opTypeOf        Opcode = 0x0602
	opMetaobjectOf  Opcode = 0x0603
	opWho           Opcode = 0x0604
	opSetWho        Opcode = 0x0605
	opIsType        Opcode = 0x0606
	opRebless       Opcode = 0x0607
	opGetAttrByName Opcode = 0x0608
	opBindAttrByName Opcode = 0x0609
)

func init() {
	registerOp(opCreate, "create", []OperandKind{OReg, OReg}, hCreate)
	registerOp(opClone, "clone", []OperandKind{OReg, OReg}, hClone)
	registerOp(opTypeOf, "typeof", []OperandKind{OReg, OReg}, hTypeOf)
	registerOp(opMetaobjectOf, "metaobjectof", []OperandKind{OReg, OReg}, hMetaobjectOf)
	registerOp(opWho, "who", []OperandKind{OReg, OReg}, hWho)
	registerOp(opSetWho, "setwho", []OperandKind{OReg, OReg}, hSetWho)
	registerOp(opIsType, "istype", []OperandKind{OReg, OReg, OReg}, hIsType)
	registerOp(opRebless, "rebless", []OperandKind{OReg, OReg}, hRebless)
	registerOp(opGetAttrByName, "getattr_name", []OperandKind{OReg, OReg, OStrIdx}, hGetAttrByName)
	registerOp(opBindAttrByName, "bindattr_name", []OperandKind{OReg, OStrIdx, OReg}, hBindAttrByName)
}

func objFromReg(tc *ThreadContext, f *Frame, idx uint16) *Obj {
	r := f.Registers[idx]
	o := lookupObj(tc, r.ObjHandle())
	if o != nil && tc.Instance != nil && tc.Instance.GC != nil {
		tc.Instance.GC.AssertNotFromSpace(o)
	}
	return o
}

func hCreate(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, typeReg := ops.Reg(0), ops.Reg(1)
	typeObj := objFromReg(tc, f, typeReg)
	if typeObj == nil || typeObj.Stable == nil {
		return Adhocf("create: register does not hold a type object")
	}
	var o *Obj
	if tc.Instance != nil && tc.Instance.GC != nil {
		o = tc.Instance.GC.Allocate(typeObj.Stable)
	} else {
		o = typeObj.Stable.Repr.Allocate(typeObj.Stable)
	}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hClone(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	src := objFromReg(tc, f, srcReg)
	if src == nil {
		return Adhocf("clone: register does not hold an object")
	}
	var dst *Obj
	if tc.Instance != nil && tc.Instance.GC != nil {
		dst = tc.Instance.GC.Allocate(src.Stable)
	} else {
		dst = src.Stable.Repr.Allocate(src.Stable)
	}
	if src.Stable != nil && src.Stable.Repr != nil {
		src.Stable.Repr.CloneInto(dst, src)
	}
	handle := tc.Instance.RegisterObj(dst)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hTypeOf(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, srcReg)
	if o == nil || o.Stable == nil {
		return Adhocf("typeof: register does not hold an object")
	}
	t, ok := tc.Instance.BootTypes[o.Stable.Name]
	if !ok {
		return Adhocf("typeof: no boot type registered for %q", o.Stable.Name)
	}
	handle := tc.Instance.RegisterObj(&Obj{Stable: t.Stable})
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hMetaobjectOf(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, srcReg)
	if o == nil || o.Stable == nil {
		return Adhocf("metaobjectof: register does not hold an object")
	}
	// The Stable itself stands in for the HLL metaobject here; real HLLs
	// wrap it with richer reflection state in internal/hll.
	handle := tc.Instance.RegisterObj(&Obj{Stable: o.Stable})
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hWho(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, srcReg)
	if o == nil {
		return Adhocf("who: register does not hold an object")
	}
	if o.Who == nil {
		f.Registers[dest] = RegFromObj(0)
		return nil
	}
	handle := tc.Instance.RegisterObj(o.Who)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hSetWho(tc *ThreadContext, f *Frame, ops Operands) error {
	targetReg, whoReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, targetReg)
	who := objFromReg(tc, f, whoReg)
	if o == nil {
		return Adhocf("setwho: register does not hold an object")
	}
	o.Who = who
	if tc.Instance != nil && tc.Instance.GC != nil {
		tc.Instance.GC.WriteBarrier(o, RegFromObj(ops.Reg(1)))
	}
	return nil
}

func hIsType(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, typeReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	o := objFromReg(tc, f, objReg)
	t := objFromReg(tc, f, typeReg)
	match := o != nil && t != nil && o.Stable == t.Stable
	f.Registers[dest] = boolReg(match)
	return nil
}

// hRebless swaps an object's Stable in place and triggers deopt_all: any
// specialization candidate anywhere that guarded on this object's old
// shape is now unsound (spec.md §4.6).
func hRebless(tc *ThreadContext, f *Frame, ops Operands) error {
	objReg, newTypeReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, objReg)
	newType := objFromReg(tc, f, newTypeReg)
	if o == nil || newType == nil {
		return Adhocf("rebless: both operands must be objects")
	}
	o.Stable = newType.Stable
	DeoptAll(tc)
	return nil
}

func hGetAttrByName(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, nameIdx := ops.Reg(0), ops.Reg(1), ops.StrIdx(2)
	o := objFromReg(tc, f, objReg)
	if o == nil || o.Stable == nil || o.Stable.Repr == nil {
		return Adhocf("getattr_name: register does not hold a representable object")
	}
	name := stringFromPool(tc, f, nameIdx)
	v, ok := o.Stable.Repr.GetAttrByName(o, name)
	if !ok {
		return Adhocf("no attribute named %q", name)
	}
	f.Registers[dest] = v
	return nil
}

func hBindAttrByName(tc *ThreadContext, f *Frame, ops Operands) error {
	objReg, nameIdx, valReg := ops.Reg(0), ops.StrIdx(1), ops.Reg(2)
	o := objFromReg(tc, f, objReg)
	if o == nil || o.Stable == nil || o.Stable.Repr == nil {
		return Adhocf("bindattr_name: register does not hold a representable object")
	}
	name := stringFromPool(tc, f, nameIdx)
	v := f.Registers[valReg]
	o.Stable.Repr.BindAttrByName(o, name, v)
	if v.Kind() == KindObj && tc.Instance != nil && tc.Instance.GC != nil {
		tc.Instance.GC.WriteBarrier(o, v)
	}
	return nil
}
