package gvm

// Serialization-context operations (spec.md §4.3 "Serialization-context
// operations", GLOSSARY "Serialization context"). Opcode numbers live in
// the 0x0A00-0x0AFF range. These are thin forwards onto
// SerializationContext (serialization.go); the wire format itself is a
// collaborator concern (spec.md §1).

const (
	opSetSC     Opcode = 0x0A00
	opPushCompSC Opcode = 0x0A01
	opPopCompSC  Opcode = 0x0A02
	opScObject   Opcode = 0x0A03
	opScSetObj   Opcode = 0x0A04
	opScGetObj   Opcode = 0x0A05
)

func init() {
	registerOp(opSetSC, "setsc", []OperandKind{OReg}, hSetSC)
	registerInvokeOp(opPushCompSC, "pushcompsc", []OperandKind{OReg}, hPushCompSC)
	registerOp(opPopCompSC, "popcompsc", nil, hPopCompSC)
	registerOp(opScObject, "scobject", []OperandKind{OReg, OImmI32}, hScObject)
	registerOp(opScSetObj, "scsetobj", []OperandKind{OImmI32, OReg}, hScSetObj)
	registerOp(opScGetObj, "scgetobj", []OperandKind{OReg, OImmI32}, hScGetObj)
}

func currentSC(tc *ThreadContext) *SerializationContext {
	n := len(tc.CompilingSCStack)
	if n == 0 {
		return nil
	}
	return tc.CompilingSCStack[n-1]
}

func hSetSC(tc *ThreadContext, f *Frame, ops Operands) error {
	objReg := ops.Reg(0)
	o := objFromReg(tc, f, objReg)
	sc := currentSC(tc)
	if sc == nil || o == nil {
		return Adhocf("setsc: no compiling serialization context is active")
	}
	sc.MarkOwner(o)
	return nil
}

// hPushCompSC pushes a fresh SerializationContext onto the thread's
// compiling-SC stack (spec.md "pushcompsc may allocate a fresh SC" — a
// potential collaborator-rooted call, since constructing it can trigger
// an allocation the GC needs to track).
func hPushCompSC(tc *ThreadContext, f *Frame, ops Operands) error {
	nameReg := ops.Reg(0)
	nameHandle := f.Registers[nameReg].StrHandle()
	sc := NewSerializationContext(stringFromPool(tc, f, nameHandle))
	tc.CompilingSCStack = append(tc.CompilingSCStack, sc)
	return nil
}

func hPopCompSC(tc *ThreadContext, f *Frame, ops Operands) error {
	n := len(tc.CompilingSCStack)
	if n == 0 {
		return Adhocf("popcompsc: compiling serialization context stack is empty")
	}
	tc.CompilingSCStack = tc.CompilingSCStack[:n-1]
	return nil
}

func hScObject(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, idx := ops.Reg(0), ops.I32(1)
	sc := currentSC(tc)
	if sc == nil {
		return Adhocf("scobject: no compiling serialization context is active")
	}
	o, ok := sc.Get(idx)
	if !ok {
		return Adhocf("scobject: index %d not present", idx)
	}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hScSetObj(tc *ThreadContext, f *Frame, ops Operands) error {
	idx, objReg := ops.I32(0), ops.Reg(1)
	sc := currentSC(tc)
	if sc == nil {
		return Adhocf("scsetobj: no compiling serialization context is active")
	}
	o := objFromReg(tc, f, objReg)
	sc.Set(idx, o)
	return nil
}

func hScGetObj(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, idx := ops.Reg(0), ops.I32(1)
	sc := currentSC(tc)
	if sc == nil {
		return Adhocf("scgetobj: no compiling serialization context is active")
	}
	o, ok := sc.Get(idx)
	if !ok {
		return Adhocf("scgetobj: index %d not present", idx)
	}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}
