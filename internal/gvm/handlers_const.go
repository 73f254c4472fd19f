package gvm

// Constants and moves (spec.md §4.3 "Constants and moves"). Opcode numbers
// live in the 0x0000-0x00FF range.

const (
	opConstI64 Opcode = 0x0001
	opConstI32 Opcode = 0x0002
	opConstN64 Opcode = 0x0003
	opConstN32 Opcode = 0x0004
	opConstS   Opcode = 0x0005

	opSetI  Opcode = 0x0010
	opSetN  Opcode = 0x0011
	opSetS  Opcode = 0x0012
	opSetO  Opcode = 0x0013

	opNull   Opcode = 0x0020
	opNullS  Opcode = 0x0021

	opSmallIntConst Opcode = 0x0030 // packs a [-1,14] literal straight into the opcode's own immediate
)

func init() {
	registerOp(opConstI64, "const_i64", []OperandKind{OReg, OImmI64}, hConstI64)
	registerOp(opConstI32, "const_i32", []OperandKind{OReg, OImmI32}, hConstI32)
	registerOp(opConstN64, "const_n64", []OperandKind{OReg, OImmN64}, hConstN64)
	registerOp(opConstN32, "const_n32", []OperandKind{OReg, OImmN32}, hConstN32)
	registerOp(opConstS, "const_s", []OperandKind{OReg, OStrIdx}, hConstS)

	registerOp(opSetI, "set_i", []OperandKind{OReg, OReg}, hSet(KindI64))
	registerOp(opSetN, "set_n", []OperandKind{OReg, OReg}, hSet(KindN64))
	registerOp(opSetS, "set_s", []OperandKind{OReg, OReg}, hSet(KindStr))
	registerOp(opSetO, "set_o", []OperandKind{OReg, OReg}, hSet(KindObj))

	registerOp(opNull, "null", []OperandKind{OReg}, hNull)
	registerOp(opNullS, "null_s", []OperandKind{OReg}, hNullS)

	registerOp(opSmallIntConst, "const_smallint", []OperandKind{OReg, OImmI8}, hSmallIntConst)
}

func hConstI64(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromI64(ops.I64(1))
	return nil
}

func hConstI32(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromI32(ops.I32(1))
	return nil
}

func hConstN64(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromN64(ops.N64(1))
	return nil
}

func hConstN32(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromN32(ops.N32(1))
	return nil
}

func hConstS(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromStr(ops.StrIdx(1))
	return nil
}

// hSet implements the family of move opcodes set_{i,n,s,o}: a plain
// register-to-register copy, kind-checked against what the source register
// actually holds (spec.md §3 invariants: "the interpreter never infers a
// view from the bits themselves").
func hSet(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		src := f.Registers[ops.Reg(1)]
		if src.Kind() != kind {
			invariantViolation("set_%s source register holds kind %s", kind, src.Kind())
		}
		f.Registers[ops.Reg(0)] = src
		return nil
	}
}

func hNull(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromObj(0) // handle 0 is reserved for the null sentinel, spec.md §3 "Instance"
	return nil
}

func hNullS(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromStr(0)
	return nil
}

func hSmallIntConst(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = RegFromI64(int64(ops.I8(1)))
	return nil
}
