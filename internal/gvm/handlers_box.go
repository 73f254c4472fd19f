package gvm

// Boxing/unboxing (spec.md §4.3 "Boxing/unboxing"). Opcode numbers live in
// the 0x0700-0x07FF range. The smrt_* coercion family may invoke
// user-overridden coercion methods through the Representation interface,
// which is exactly the category of handler spec.md §4.5 requires to
// pre-increment the PC before calling out (see preIncrementPC in
// exceptions.go) so a later longjmp-equivalent restart lands one past the
// coercion opcode rather than re-entering it.

const (
	opBoxI   Opcode = 0x0700
	opBoxN   Opcode = 0x0701
	opBoxS   Opcode = 0x0702
	opBoxU   Opcode = 0x0703
	opUnboxI Opcode = 0x0710
	opUnboxN Opcode = 0x0711
	opUnboxS Opcode = 0x0712
	opUnboxU Opcode = 0x0713

	opSmrtIntify Opcode = 0x0720
	opSmrtNumify Opcode = 0x0721
	opSmrtStrify Opcode = 0x0722
)

func init() {
	registerOp(opBoxI, "box_i", []OperandKind{OReg, OReg, OReg}, hBoxI)
	registerOp(opBoxN, "box_n", []OperandKind{OReg, OReg, OReg}, hBoxN)
	registerOp(opBoxS, "box_s", []OperandKind{OReg, OReg, OReg}, hBoxS)
	registerOp(opBoxU, "box_u", []OperandKind{OReg, OReg, OReg}, hBoxU)

	registerOp(opUnboxI, "unbox_i", []OperandKind{OReg, OReg}, hUnboxI)
	registerOp(opUnboxN, "unbox_n", []OperandKind{OReg, OReg}, hUnboxN)
	registerOp(opUnboxS, "unbox_s", []OperandKind{OReg, OReg}, hUnboxS)
	registerOp(opUnboxU, "unbox_u", []OperandKind{OReg, OReg}, hUnboxU)

	registerOp(opSmrtIntify, "smrt_intify", []OperandKind{OReg, OReg}, hSmrtIntify)
	registerOp(opSmrtNumify, "smrt_numify", []OperandKind{OReg, OReg}, hSmrtNumify)
	registerOp(opSmrtStrify, "smrt_strify", []OperandKind{OReg, OReg}, hSmrtStrify)
}

// boxPrimitive allocates a new instance of the type named in typeReg and
// stores value into its sole "box" attribute, using the small-int cache
// for values in [-1, 14] (spec.md §4.6 "small-int boxing cache", Testable
// Property 10: identical *Obj by identity across calls).
func boxPrimitive(tc *ThreadContext, f *Frame, destIdx, typeReg uint16, value Register, isSmallInt bool) error {
	if isSmallInt {
		v := value.I64()
		if v >= -1 && v <= 14 && tc.Instance != nil && tc.Instance.GC != nil {
			cached := tc.Instance.GC.BoxSmallInt(v)
			handle := tc.Instance.RegisterObj(cached)
			f.Registers[destIdx] = RegFromObj(handle)
			return nil
		}
	}
	typeObj := objFromReg(tc, f, typeReg)
	if typeObj == nil || typeObj.Stable == nil {
		return Adhocf("box: register does not hold a type object")
	}
	var o *Obj
	if tc.Instance != nil && tc.Instance.GC != nil {
		o = tc.Instance.GC.Allocate(typeObj.Stable)
	} else {
		o = typeObj.Stable.Repr.Allocate(typeObj.Stable)
	}
	if o.Stable != nil && o.Stable.Repr != nil {
		o.Stable.Repr.BindAttrByIdx(o, 0, value)
	} else {
		if o.Attrs == nil {
			o.Attrs = map[string]Register{}
		}
		o.Attrs["$box"] = value
	}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[destIdx] = RegFromObj(handle)
	return nil
}

func hBoxI(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, valReg, typeReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	return boxPrimitive(tc, f, dest, typeReg, f.Registers[valReg], true)
}

func hBoxU(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, valReg, typeReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	return boxPrimitive(tc, f, dest, typeReg, f.Registers[valReg], false)
}

func hBoxN(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, valReg, typeReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	return boxPrimitive(tc, f, dest, typeReg, f.Registers[valReg], false)
}

func hBoxS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, valReg, typeReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	return boxPrimitive(tc, f, dest, typeReg, f.Registers[valReg], false)
}

func unboxed(tc *ThreadContext, f *Frame, srcReg uint16) (Register, error) {
	o := objFromReg(tc, f, srcReg)
	if o == nil {
		return Register{}, Adhocf("unbox: register does not hold an object")
	}
	if o.Stable != nil && o.Stable.Repr != nil {
		return o.Stable.Repr.GetAttrByIdx(o, 0), nil
	}
	if v, ok := o.Attrs["$box"]; ok {
		return v, nil
	}
	return Register{}, Adhocf("unbox: object has no boxed primitive")
}

func hUnboxI(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = RegFromI64(v.I64())
	return nil
}

func hUnboxU(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = RegFromU64(v.U64())
	return nil
}

func hUnboxN(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = RegFromN64(v.N64())
	return nil
}

func hUnboxS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = v
	return nil
}

// hSmrtIntify/hSmrtNumify/hSmrtStrify implement the "smart" coercions: if
// the source register already holds the target primitive kind, copy it
// through; otherwise unbox it, invoking the object's own coercion method
// by way of Representation (a potential user-code reentry point, hence
// preIncrementPC before the call-out).
func hSmrtIntify(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	preIncrementPC(f, f.PC)
	r := f.Registers[src]
	if r.Kind() == KindI64 {
		f.Registers[dest] = r
		return nil
	}
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = RegFromI64(v.I64())
	return nil
}

func hSmrtNumify(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	preIncrementPC(f, f.PC)
	r := f.Registers[src]
	if r.Kind() == KindN64 {
		f.Registers[dest] = r
		return nil
	}
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = RegFromN64(v.N64())
	return nil
}

func hSmrtStrify(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, src := ops.Reg(0), ops.Reg(1)
	preIncrementPC(f, f.PC)
	r := f.Registers[src]
	if r.Kind() == KindStr {
		f.Registers[dest] = r
		return nil
	}
	v, err := unboxed(tc, f, src)
	if err != nil {
		return err
	}
	f.Registers[dest] = v
	return nil
}
