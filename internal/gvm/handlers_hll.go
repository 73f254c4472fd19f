package gvm

// HLL support (spec.md §4.5's pre-increment list names these directly:
// "findmeth[_s]", "can[_s]", "istrue/isfalse", "hllize[for]" — plus the
// current-HLL symbol table bindcurhllsym/getcurhllsym spec.md §5
// "Temporary rooting" calls out by name). Opcode numbers live in the
// 0x0F00-0x0FFF range, the one family-sized gap left between the object/
// native-call handlers and the sp_* range.

const (
	opFindMeth  Opcode = 0x0F00
	opFindMethS Opcode = 0x0F01
	opCan       Opcode = 0x0F02
	opCanS      Opcode = 0x0F03

	opIsTrue  Opcode = 0x0F10
	opIsFalse Opcode = 0x0F11

	opHllize    Opcode = 0x0F20
	opHllizeFor Opcode = 0x0F21

	opBindCurHllSym Opcode = 0x0F30
	opGetCurHllSym  Opcode = 0x0F31
)

func init() {
	registerInvokeOp(opFindMeth, "findmeth", []OperandKind{OReg, OReg, OStrIdx}, hFindMeth)
	registerInvokeOp(opFindMethS, "findmeth_s", []OperandKind{OReg, OReg, OReg}, hFindMethS)
	registerInvokeOp(opCan, "can", []OperandKind{OReg, OReg, OStrIdx}, hCan)
	registerInvokeOp(opCanS, "can_s", []OperandKind{OReg, OReg, OReg}, hCanS)

	registerInvokeOp(opIsTrue, "istrue", []OperandKind{OReg, OReg}, hIsTrue)
	registerInvokeOp(opIsFalse, "isfalse", []OperandKind{OReg, OReg}, hIsFalse)

	registerInvokeOp(opHllize, "hllize", []OperandKind{OReg, OReg}, hHllize)
	registerInvokeOp(opHllizeFor, "hllizefor", []OperandKind{OReg, OReg, OStrIdx}, hHllizeFor)

	registerOp(opBindCurHllSym, "bindcurhllsym", []OperandKind{OStrIdx, OReg}, hBindCurHllSym)
	registerOp(opGetCurHllSym, "getcurhllsym", []OperandKind{OReg, OStrIdx}, hGetCurHllSym)
}

func methodLookup(tc *ThreadContext, f *Frame, o *Obj, name string) *CodeRef {
	if o == nil || o.Stable == nil {
		return nil
	}
	if o.Stable.MethodCache != nil {
		if code, ok := o.Stable.MethodCache.Lookup(name); ok {
			return code
		}
	}
	return nil
}

// hFindMeth resolves a method by name against an object's Stable,
// pre-incrementing the PC first since the eventual resolution path may
// call into user-overridden introspection (spec.md §4.5).
func hFindMeth(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, nameIdx := ops.Reg(0), ops.Reg(1), ops.StrIdx(2)
	preIncrementPC(f, f.PC)
	o := objFromReg(tc, f, objReg)
	name := stringFromPool(tc, f, nameIdx)
	code := methodLookup(tc, f, o, name)
	if code == nil {
		return Adhocf("no method named %q", name)
	}
	handle := tc.Instance.RegisterCode(code)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hFindMethS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, nameReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	preIncrementPC(f, f.PC)
	o := objFromReg(tc, f, objReg)
	name := strOf(tc, f, nameReg)
	code := methodLookup(tc, f, o, name)
	if code == nil {
		return Adhocf("no method named %q", name)
	}
	handle := tc.Instance.RegisterCode(code)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hCan(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, nameIdx := ops.Reg(0), ops.Reg(1), ops.StrIdx(2)
	preIncrementPC(f, f.PC)
	o := objFromReg(tc, f, objReg)
	name := stringFromPool(tc, f, nameIdx)
	f.Registers[dest] = boolReg(methodLookup(tc, f, o, name) != nil)
	return nil
}

func hCanS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, nameReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	preIncrementPC(f, f.PC)
	o := objFromReg(tc, f, objReg)
	name := strOf(tc, f, nameReg)
	f.Registers[dest] = boolReg(methodLookup(tc, f, o, name) != nil)
	return nil
}

// hIsTrue/hIsFalse produce a plain boolean register rather than branching
// (unlike if_o/unless_o in handlers_control.go); an object's truthiness
// may route through a user-overridden bool-coercion method, hence the
// pre-increment (spec.md §4.5).
func hIsTrue(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	preIncrementPC(f, f.PC)
	f.Registers[dest] = boolReg(f.Registers[src].Truthy())
	return nil
}

func hIsFalse(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	preIncrementPC(f, f.PC)
	f.Registers[dest] = boolReg(!f.Registers[src].Truthy())
	return nil
}

// hHllize/hHllizeFor convert a value produced by one HLL's representation
// into the representation the calling HLL expects (spec.md GLOSSARY
// "HLL": "every Stable names the HLL that owns its representation").
// There is no cross-HLL conversion table: every value is copied to dest
// unchanged, whichever HLL owns it, and the "for" variant's target-HLL
// operand does not change that.
func hHllize(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	preIncrementPC(f, f.PC)
	f.Registers[dest] = f.Registers[src]
	return nil
}

func hHllizeFor(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src, hllIdx := ops.Reg(0), ops.Reg(1), ops.StrIdx(2)
	preIncrementPC(f, f.PC)
	_ = stringFromPool(tc, f, hllIdx)
	f.Registers[dest] = f.Registers[src]
	return nil
}

func curHLL(f *Frame) string {
	if f.Static != nil && f.Static.CU != nil {
		return f.Static.CU.HLL
	}
	return ""
}

// hBindCurHllSym implements bindcurhllsym. The first bind for a given HLL
// allocates its swiss.Map lazily (internal/gvm/hllsymbols.go), which is
// exactly the allocation spec.md §5 "Temporary rooting" flags by name —
// there is nothing to root here since SymbolTable.Bind never exposes a
// raw pointer across a call that could itself allocate.
func hBindCurHllSym(tc *ThreadContext, f *Frame, ops Operands) error {
	nameIdx, src := ops.StrIdx(0), ops.Reg(1)
	name := stringFromPool(tc, f, nameIdx)
	if tc.Instance.HLLSymbols == nil {
		tc.Instance.HLLSymbols = NewSymbolTable()
	}
	tc.Instance.HLLSymbols.Bind(curHLL(f), name, f.Registers[src])
	return nil
}

func hGetCurHllSym(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, nameIdx := ops.Reg(0), ops.StrIdx(1)
	name := stringFromPool(tc, f, nameIdx)
	if tc.Instance.HLLSymbols == nil {
		return Adhocf("getcurhllsym: no symbol named %q bound", name)
	}
	v, ok := tc.Instance.HLLSymbols.Get(curHLL(f), name)
	if !ok {
		return Adhocf("getcurhllsym: no symbol named %q bound", name)
	}
	f.Registers[dest] = v
	return nil
}
