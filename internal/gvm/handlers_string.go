package gvm

import "github.com/kstephano-gvm/coreloop/internal/strengine"

// String operations (spec.md §4.3 "String operations"). Opcode numbers
// live in the 0x0300-0x03FF range. All payloads route through
// internal/strengine, which owns codepoint semantics; this file only
// unpacks operands, interns results, and wires kind-checking.

const (
	opConcatS  Opcode = 0x0300
	opLengthS  Opcode = 0x0301
	opSubstrS  Opcode = 0x0302
	opIndexS   Opcode = 0x0303
	opUcS      Opcode = 0x0304
	opLcS      Opcode = 0x0305
	opEqS      Opcode = 0x0306
	opNeS      Opcode = 0x0307
	opLtS      Opcode = 0x0308
	opIsSpaceS Opcode = 0x0309

	// decodetocodes/encodefromcodes/encodenorm are grapheme-normalization
	// codecs (NFC/NFD/NFKC/NFKD codepoint <-> string round-tripping) that
	// the reference interpreter itself never finished (spec.md §9(a)): its
	// interp.c throws "NYI" for all three unconditionally, same as here.
	// internal/strengine is codepoint-indexed but does not implement
	// Unicode normalization, so there is nothing to delegate to.
	opDecodeToCodes   Opcode = 0x030A
	opEncodeFromCodes Opcode = 0x030B
	opEncodeNorm      Opcode = 0x030C
)

func init() {
	registerOp(opConcatS, "concat_s", []OperandKind{OReg, OReg, OReg}, hConcatS)
	registerOp(opLengthS, "length_s", []OperandKind{OReg, OReg}, hLengthS)
	registerOp(opSubstrS, "substr_s", []OperandKind{OReg, OReg, OReg, OReg}, hSubstrS)
	registerOp(opIndexS, "index_s", []OperandKind{OReg, OReg, OReg, OReg}, hIndexS)
	registerOp(opUcS, "uc_s", []OperandKind{OReg, OReg}, hUcS)
	registerOp(opLcS, "lc_s", []OperandKind{OReg, OReg}, hLcS)
	registerOp(opEqS, "eq_s", []OperandKind{OReg, OReg, OReg}, hEqS)
	registerOp(opNeS, "ne_s", []OperandKind{OReg, OReg, OReg}, hNeS)
	registerOp(opLtS, "lt_s", []OperandKind{OReg, OReg, OReg}, hLtS)
	registerOp(opIsSpaceS, "isspace_s", []OperandKind{OReg, OReg}, hIsSpaceS)

	registerOp(opDecodeToCodes, "decodetocodes", []OperandKind{OReg, OImmU8, OReg}, hNotYetImplemented)
	registerOp(opEncodeFromCodes, "encodefromcodes", []OperandKind{OReg, OImmU8, OReg}, hNotYetImplemented)
	registerOp(opEncodeNorm, "encodenorm", []OperandKind{OReg, OImmU8, OReg}, hNotYetImplemented)
}

// hNotYetImplemented backs the handful of opcodes the reference
// interpreter itself never finished (spec.md §9(a)): raising
// ErrNotYetImplemented preserves that surface instead of silently
// dropping the opcodes or treating them as decode errors.
func hNotYetImplemented(tc *ThreadContext, f *Frame, ops Operands) error {
	return ErrNotYetImplemented
}

func strOf(tc *ThreadContext, f *Frame, regIdx uint16) string {
	handle := f.Registers[regIdx].StrHandle()
	return stringFromPool(tc, f, handle)
}

func hConcatS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	result := strengine.Concat(strOf(tc, f, aReg), strOf(tc, f, bReg))
	f.Registers[dest] = RegFromStr(internString(tc, result))
	return nil
}

func hLengthS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	f.Registers[dest] = RegFromI64(strengine.Length(strOf(tc, f, srcReg)))
	return nil
}

func hSubstrS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg, startReg, countReg := ops.Reg(0), ops.Reg(1), ops.Reg(2), ops.Reg(3)
	s := strOf(tc, f, srcReg)
	start := f.Registers[startReg].I64()
	count := f.Registers[countReg].I64()
	result := strengine.Substring(s, start, count)
	f.Registers[dest] = RegFromStr(internString(tc, result))
	return nil
}

func hIndexS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, haystackReg, needleReg, fromReg := ops.Reg(0), ops.Reg(1), ops.Reg(2), ops.Reg(3)
	haystack := strOf(tc, f, haystackReg)
	needle := strOf(tc, f, needleReg)
	from := f.Registers[fromReg].I64()
	f.Registers[dest] = RegFromI64(strengine.IndexOf(haystack, needle, from))
	return nil
}

func hUcS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	f.Registers[dest] = RegFromStr(internString(tc, strengine.ToUpper(strOf(tc, f, srcReg))))
	return nil
}

func hLcS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	f.Registers[dest] = RegFromStr(internString(tc, strengine.ToLower(strOf(tc, f, srcReg))))
	return nil
}

func hEqS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	f.Registers[dest] = boolReg(strengine.Compare(strOf(tc, f, aReg), strOf(tc, f, bReg)) == 0)
	return nil
}

func hNeS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	f.Registers[dest] = boolReg(strengine.Compare(strOf(tc, f, aReg), strOf(tc, f, bReg)) != 0)
	return nil
}

func hLtS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, aReg, bReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	f.Registers[dest] = boolReg(strengine.Compare(strOf(tc, f, aReg), strOf(tc, f, bReg)) < 0)
	return nil
}

func hIsSpaceS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	f.Registers[dest] = boolReg(strengine.IsSpace(strOf(tc, f, srcReg)))
	return nil
}
