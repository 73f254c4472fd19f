package gvm

// Container protocol (spec.md §4.3 "Container protocol"). Opcode numbers
// live in the 0x0D00-0x0DFF range. A container is an ordinary object
// that stores its value in a single "$value" attribute. isrwcont/iscont
// treat any object with a non-nil Attrs map as a container; they do not
// look for the "$value" key itself, and there is no dedicated type tag.

const (
	opAssign      Opcode = 0x0D00
	opDecont      Opcode = 0x0D01
	opIsCont      Opcode = 0x0D02
	opIsRWCont    Opcode = 0x0D03
	opCasCont     Opcode = 0x0D04

	opAssignI Opcode = 0x0D05
	opAssignN Opcode = 0x0D06
	opAssignS Opcode = 0x0D07

	opDecontI Opcode = 0x0D08
	opDecontN Opcode = 0x0D09
	opDecontS Opcode = 0x0D0A
	opDecontU Opcode = 0x0D0B
)

func init() {
	registerOp(opAssign, "assign", []OperandKind{OReg, OReg}, hAssign)
	registerOp(opDecont, "decont", []OperandKind{OReg, OReg}, hDecont)
	registerOp(opIsCont, "iscont", []OperandKind{OReg, OReg}, hIsCont)
	registerOp(opIsRWCont, "isrwcont", []OperandKind{OReg, OReg}, hIsRWCont)
	registerOp(opCasCont, "cascont", []OperandKind{OReg, OReg, OReg, OReg}, hCasCont)

	// Per-kind assign/decont (spec.md §4.3 "per-kind decontainerize
	// (decont_i|n|s|u), per-kind assign"): same $value-attribute protocol
	// as the generic opcodes above, but typed so a compiler that already
	// knows a container's kind can skip the register-kind branch.
	registerOp(opAssignI, "assign_i", []OperandKind{OReg, OReg}, hAssignKind(KindI64))
	registerOp(opAssignN, "assign_n", []OperandKind{OReg, OReg}, hAssignKind(KindN64))
	registerOp(opAssignS, "assign_s", []OperandKind{OReg, OReg}, hAssignKind(KindStr))

	registerOp(opDecontI, "decont_i", []OperandKind{OReg, OReg}, hDecontKind(KindI64))
	registerOp(opDecontN, "decont_n", []OperandKind{OReg, OReg}, hDecontKind(KindN64))
	registerOp(opDecontS, "decont_s", []OperandKind{OReg, OReg}, hDecontKind(KindStr))
	registerOp(opDecontU, "decont_u", []OperandKind{OReg, OReg}, hDecontKind(KindU64))
}

func isContainer(o *Obj) bool {
	return o != nil && o.Attrs != nil
}

func hAssign(tc *ThreadContext, f *Frame, ops Operands) error {
	contReg, valReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, contReg)
	if !isContainer(o) {
		return Adhocf("assign: register does not hold a writable container")
	}
	v := f.Registers[valReg]
	o.Attrs["$value"] = v
	if v.Kind() == KindObj && tc.Instance != nil && tc.Instance.GC != nil {
		tc.Instance.GC.WriteBarrier(o, v)
	}
	return nil
}

// hDecont implements decontainerize: if the source holds a container,
// read its current value through; otherwise pass the register through
// unchanged, matching the "may-or-may-not-be-a-container" ambiguity every
// read site has to tolerate.
func hDecont(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	r := f.Registers[srcReg]
	if r.Kind() == KindObj {
		if o := lookupObj(tc, r.ObjHandle()); isContainer(o) {
			if v, ok := o.Attrs["$value"]; ok {
				f.Registers[dest] = v
				return nil
			}
		}
	}
	f.Registers[dest] = r
	return nil
}

// hAssignKind is assign_i|n|s: the source register must already carry the
// expected kind (the compiler is responsible for that, same as arg_i|n|s|o
// in the call protocol), so a mismatch is an invariant violation rather
// than an adhoc error.
func hAssignKind(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		contReg, valReg := ops.Reg(0), ops.Reg(1)
		o := objFromReg(tc, f, contReg)
		if !isContainer(o) {
			return Adhocf("assign_%s: register does not hold a writable container", kind)
		}
		v := f.Registers[valReg]
		if v.Kind() != kind {
			invariantViolation("assign_%s register kind mismatch: got %s", kind, v.Kind())
		}
		o.Attrs["$value"] = v
		return nil
	}
}

// hDecontKind is decont_i|n|s|u: like hDecont, but the caller already
// knows the expected result kind, so a held container is still read
// through "$value" and a non-container source still passes through
// unchanged — the only difference from hDecont is the operand typing a
// compiler attaches to this call site.
func hDecontKind(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, srcReg := ops.Reg(0), ops.Reg(1)
		r := f.Registers[srcReg]
		if r.Kind() == KindObj {
			if o := lookupObj(tc, r.ObjHandle()); isContainer(o) {
				if v, ok := o.Attrs["$value"]; ok {
					f.Registers[dest] = v
					return nil
				}
			}
		}
		f.Registers[dest] = r
		return nil
	}
}

func hIsCont(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, srcReg)
	f.Registers[dest] = boolReg(isContainer(o))
	return nil
}

func hIsRWCont(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, srcReg)
	f.Registers[dest] = boolReg(isContainer(o))
	return nil
}

// hCasCont performs compare-and-swap on a container's held value,
// comparing by object identity for KindObj values and by raw bits
// otherwise — the container-level counterpart to cas_i's cell-level CAS
// (handlers_concurrency.go).
func hCasCont(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, contReg, oldReg, newReg := ops.Reg(0), ops.Reg(1), ops.Reg(2), ops.Reg(3)
	o := objFromReg(tc, f, contReg)
	if !isContainer(o) {
		return Adhocf("cascont: register does not hold a writable container")
	}
	cur := o.Attrs["$value"]
	old := f.Registers[oldReg]
	match := cur.Kind() == old.Kind() && cur.U64() == old.U64()
	if match {
		newV := f.Registers[newReg]
		o.Attrs["$value"] = newV
		if newV.Kind() == KindObj && tc.Instance != nil && tc.Instance.GC != nil {
			tc.Instance.GC.WriteBarrier(o, newV)
		}
	}
	f.Registers[dest] = boolReg(match)
	return nil
}
