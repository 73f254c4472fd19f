package gvm

// Numeric arithmetic (spec.md §4.3 "Numeric arithmetic"). Opcode numbers
// live in the 0x0100-0x01FF range. Integer ops read/write registers
// through I64() and num ops through N64(); there are no separate
// unsigned or n32 arithmetic opcodes. This follows the teacher's approach
// (KTStephano-GVM vm/vm.go) of one Go function per arithmetic opcode
// registered into a dispatch table rather than a hand-unrolled switch.

const (
	opAddI Opcode = 0x0100
	opSubI Opcode = 0x0101
	opMulI Opcode = 0x0102
	opDivI Opcode = 0x0103
	opModI Opcode = 0x0104
	opNegI Opcode = 0x0105
	opAbsI Opcode = 0x0106
	opPowI Opcode = 0x0107
	opGcdI Opcode = 0x0108
	opLcmI Opcode = 0x0109

	opBandI Opcode = 0x0110
	opBorI  Opcode = 0x0111
	opBxorI Opcode = 0x0112
	opBnotI Opcode = 0x0113
	opShlI  Opcode = 0x0114
	opShrI  Opcode = 0x0115

	opEqI Opcode = 0x0120
	opNeI Opcode = 0x0121
	opLtI Opcode = 0x0122
	opLeI Opcode = 0x0123
	opGtI Opcode = 0x0124
	opGeI Opcode = 0x0125

	opAddN Opcode = 0x0140
	opSubN Opcode = 0x0141
	opMulN Opcode = 0x0142
	opDivN Opcode = 0x0143
	opNegN Opcode = 0x0144

	opEqN Opcode = 0x0150
	opNeN Opcode = 0x0151
	opLtN Opcode = 0x0152
	opLeN Opcode = 0x0153
	opGtN Opcode = 0x0154
	opGeN Opcode = 0x0155

	opCoerceIn Opcode = 0x0160 // int -> num
	opCoerceNi Opcode = 0x0161 // num -> int, truncating toward zero
)

func init() {
	registerIntBinOp(opAddI, "add_i", func(a, b int64) int64 { return a + b })
	registerIntBinOp(opSubI, "sub_i", func(a, b int64) int64 { return a - b })
	registerIntBinOp(opMulI, "mul_i", func(a, b int64) int64 { return a * b })
	registerIntBinOpErr(opDivI, "div_i", divI)
	registerIntBinOpErr(opModI, "mod_i", modI)
	registerIntUnOp(opNegI, "neg_i", func(a int64) int64 { return -a })
	registerIntUnOp(opAbsI, "abs_i", absI)
	registerIntBinOp(opPowI, "pow_i", powI)
	registerIntBinOp(opGcdI, "gcd_i", gcdI)
	registerIntBinOp(opLcmI, "lcm_i", lcmI)

	registerIntBinOp(opBandI, "band_i", func(a, b int64) int64 { return a & b })
	registerIntBinOp(opBorI, "bor_i", func(a, b int64) int64 { return a | b })
	registerIntBinOp(opBxorI, "bxor_i", func(a, b int64) int64 { return a ^ b })
	registerIntUnOp(opBnotI, "bnot_i", func(a int64) int64 { return ^a })
	registerIntBinOp(opShlI, "shl_i", func(a, b int64) int64 { return a << uint(b&63) })
	registerIntBinOp(opShrI, "shr_i", func(a, b int64) int64 { return a >> uint(b&63) })

	registerIntCmpOp(opEqI, "eq_i", func(a, b int64) bool { return a == b })
	registerIntCmpOp(opNeI, "ne_i", func(a, b int64) bool { return a != b })
	registerIntCmpOp(opLtI, "lt_i", func(a, b int64) bool { return a < b })
	registerIntCmpOp(opLeI, "le_i", func(a, b int64) bool { return a <= b })
	registerIntCmpOp(opGtI, "gt_i", func(a, b int64) bool { return a > b })
	registerIntCmpOp(opGeI, "ge_i", func(a, b int64) bool { return a >= b })

	registerNumBinOp(opAddN, "add_n", func(a, b float64) float64 { return a + b })
	registerNumBinOp(opSubN, "sub_n", func(a, b float64) float64 { return a - b })
	registerNumBinOp(opMulN, "mul_n", func(a, b float64) float64 { return a * b })
	registerNumBinOpErr(opDivN, "div_n", divN)
	registerNumUnOp(opNegN, "neg_n", func(a float64) float64 { return -a })

	registerNumCmpOp(opEqN, "eq_n", func(a, b float64) bool { return a == b })
	registerNumCmpOp(opNeN, "ne_n", func(a, b float64) bool { return a != b })
	registerNumCmpOp(opLtN, "lt_n", func(a, b float64) bool { return a < b })
	registerNumCmpOp(opLeN, "le_n", func(a, b float64) bool { return a <= b })
	registerNumCmpOp(opGtN, "gt_n", func(a, b float64) bool { return a > b })
	registerNumCmpOp(opGeN, "ge_n", func(a, b float64) bool { return a >= b })

	registerOp(opCoerceIn, "coerce_in", []OperandKind{OReg, OReg}, hCoerceIn)
	registerOp(opCoerceNi, "coerce_ni", []OperandKind{OReg, OReg}, hCoerceNi)
}

// --- registration helpers: each wraps a pure Go numeric function as a
// three-register (dest, a, b) or two-register (dest, a) opcode handler, the
// mechanical 75% spec.md §2 describes once the pattern is established. ---

func registerIntBinOp(code Opcode, name string, fn func(a, b int64) int64) {
	registerOp(code, name, []OperandKind{OReg, OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].I64()
		b := f.Registers[ops.Reg(2)].I64()
		f.Registers[ops.Reg(0)] = RegFromI64(fn(a, b))
		return nil
	})
}

func registerIntBinOpErr(code Opcode, name string, fn func(a, b int64) (int64, error)) {
	registerOp(code, name, []OperandKind{OReg, OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].I64()
		b := f.Registers[ops.Reg(2)].I64()
		r, err := fn(a, b)
		if err != nil {
			return err
		}
		f.Registers[ops.Reg(0)] = RegFromI64(r)
		return nil
	})
}

func registerIntUnOp(code Opcode, name string, fn func(a int64) int64) {
	registerOp(code, name, []OperandKind{OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].I64()
		f.Registers[ops.Reg(0)] = RegFromI64(fn(a))
		return nil
	})
}

func registerIntCmpOp(code Opcode, name string, fn func(a, b int64) bool) {
	registerOp(code, name, []OperandKind{OReg, OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].I64()
		b := f.Registers[ops.Reg(2)].I64()
		f.Registers[ops.Reg(0)] = boolReg(fn(a, b))
		return nil
	})
}

func registerNumBinOp(code Opcode, name string, fn func(a, b float64) float64) {
	registerOp(code, name, []OperandKind{OReg, OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].N64()
		b := f.Registers[ops.Reg(2)].N64()
		f.Registers[ops.Reg(0)] = RegFromN64(fn(a, b))
		return nil
	})
}

func registerNumBinOpErr(code Opcode, name string, fn func(a, b float64) (float64, error)) {
	registerOp(code, name, []OperandKind{OReg, OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].N64()
		b := f.Registers[ops.Reg(2)].N64()
		r, err := fn(a, b)
		if err != nil {
			return err
		}
		f.Registers[ops.Reg(0)] = RegFromN64(r)
		return nil
	})
}

func registerNumUnOp(code Opcode, name string, fn func(a float64) float64) {
	registerOp(code, name, []OperandKind{OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].N64()
		f.Registers[ops.Reg(0)] = RegFromN64(fn(a))
		return nil
	})
}

func registerNumCmpOp(code Opcode, name string, fn func(a, b float64) bool) {
	registerOp(code, name, []OperandKind{OReg, OReg, OReg}, func(tc *ThreadContext, f *Frame, ops Operands) error {
		a := f.Registers[ops.Reg(1)].N64()
		b := f.Registers[ops.Reg(2)].N64()
		f.Registers[ops.Reg(0)] = boolReg(fn(a, b))
		return nil
	})
}

func boolReg(b bool) Register {
	if b {
		return RegFromI64(1)
	}
	return RegFromI64(0)
}

// divI implements Testable Property "div_i flooring": the quotient rounds
// toward negative infinity, not toward zero the way Go's native / does.
func divI(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q, nil
}

// modI is the C-style remainder: same sign as the dividend, satisfying
// a == (a/b)*b + mod_i(a,b) for Go's truncating a/b. This is deliberately
// NOT the floored-division remainder that would pair with div_i.
func modI(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrModulationByZero
	}
	return a % b, nil
}

func absI(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

// powI implements exponentiation by squaring; a negative exponent returns
// 0 rather than a fractional result, since pow_i's result register is
// integer-kinded (spec.md Testable Property "pow_i contract").
func powI(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	var result int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func gcdI(a, b int64) int64 {
	a, b = absI(a), absI(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcmI(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	g := gcdI(a, b)
	return absI(a/g) * absI(b)
}

func divN(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

func hCoerceIn(tc *ThreadContext, f *Frame, ops Operands) error {
	a := f.Registers[ops.Reg(1)].I64()
	f.Registers[ops.Reg(0)] = RegFromN64(float64(a))
	return nil
}

func hCoerceNi(tc *ThreadContext, f *Frame, ops Operands) error {
	a := f.Registers[ops.Reg(1)].N64()
	f.Registers[ops.Reg(0)] = RegFromI64(int64(a))
	return nil
}
