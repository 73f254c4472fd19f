package gvm

import "github.com/kstephano-gvm/coreloop/internal/bigint"

// Big-integer arithmetic (spec.md §4.3 "Big-integer arithmetic"). Opcode
// numbers live in the 0x0200-0x02FF range. Results are boxed objects
// (Obj.Big) rather than raw registers, since a bigint's magnitude can
// exceed a 64-bit register slot; internal/bigint's own small-value fast
// path keeps the common case cheap without the interpreter needing to
// special-case it here.

const (
	opAddBigI Opcode = 0x0200
	opSubBigI Opcode = 0x0201
	opMulBigI Opcode = 0x0202
	opDivBigI Opcode = 0x0203
	opCmpBigI Opcode = 0x0204
	opFromI64 Opcode = 0x0205
	opToI64   Opcode = 0x0206
)

func init() {
	registerOp(opAddBigI, "add_I", []OperandKind{OReg, OReg, OReg}, bigBinOp(bigint.Add))
	registerOp(opSubBigI, "sub_I", []OperandKind{OReg, OReg, OReg}, bigBinOp(bigint.Sub))
	registerOp(opMulBigI, "mul_I", []OperandKind{OReg, OReg, OReg}, bigBinOp(bigint.Mul))
	registerOp(opDivBigI, "div_I", []OperandKind{OReg, OReg, OReg}, hDivBigI)
	registerOp(opCmpBigI, "cmp_I", []OperandKind{OReg, OReg, OReg}, hCmpBigI)
	registerOp(opFromI64, "fromnum_I", []OperandKind{OReg, OReg}, hFromI64)
	registerOp(opToI64, "tonum_I", []OperandKind{OReg, OReg}, hToI64)
}

func bigFromReg(tc *ThreadContext, f *Frame, regIdx uint16) *bigint.Int {
	o := objFromReg(tc, f, regIdx)
	if o == nil || o.Big == nil {
		return nil
	}
	return o.Big
}

func boxBig(tc *ThreadContext, v bigint.Int) Register {
	o := &Obj{Big: &v}
	handle := tc.Instance.RegisterObj(o)
	return RegFromObj(handle)
}

func bigBinOp(fn func(a, b bigint.Int) bigint.Int) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
		a, b := bigFromReg(tc, f, aReg), bigFromReg(tc, f, bReg)
		if a == nil || b == nil {
			return Adhocf("bigint op: register does not hold a bigint object")
		}
		f.Registers[dest] = boxBig(tc, fn(*a, *b))
		return nil
	}
}

func hDivBigI(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	a, b := bigFromReg(tc, f, aReg), bigFromReg(tc, f, bReg)
	if a == nil || b == nil {
		return Adhocf("div_I: register does not hold a bigint object")
	}
	q, ok := bigint.Div(*a, *b)
	if !ok {
		return ErrDivisionByZero
	}
	f.Registers[dest] = boxBig(tc, q)
	return nil
}

func hCmpBigI(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	a, b := bigFromReg(tc, f, aReg), bigFromReg(tc, f, bReg)
	if a == nil || b == nil {
		return Adhocf("cmp_I: register does not hold a bigint object")
	}
	f.Registers[dest] = RegFromI64(int64(bigint.Cmp(*a, *b)))
	return nil
}

func hFromI64(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	v := bigint.FromInt64(f.Registers[srcReg].I64())
	f.Registers[dest] = boxBig(tc, v)
	return nil
}

func hToI64(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	v := bigFromReg(tc, f, srcReg)
	if v == nil {
		return Adhocf("tonum_I: register does not hold a bigint object")
	}
	f.Registers[dest] = RegFromI64(v.Int64())
	return nil
}
