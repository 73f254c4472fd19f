package gvm

import (
	"encoding/binary"
	"math"
)

// Operands is the decoded operand list for one instruction: raw 64-bit
// slots plus the OperandKind each was decoded as, so a handler can assert
// it's reading the kind it expects.
type Operands struct {
	kinds []OperandKind
	vals  []uint64
}

func (o Operands) Len() int { return len(o.vals) }

func (o Operands) Reg(i int) uint16 {
	o.expect(i, OReg)
	return uint16(o.vals[i])
}

func (o Operands) I8(i int) int8   { o.expect(i, OImmI8); return int8(o.vals[i]) }
func (o Operands) U8(i int) uint8  { o.expect(i, OImmU8); return uint8(o.vals[i]) }
func (o Operands) I16(i int) int16 { o.expect(i, OImmI16); return int16(o.vals[i]) }
func (o Operands) U16(i int) uint16 { o.expect(i, OImmU16); return uint16(o.vals[i]) }
func (o Operands) I32(i int) int32 { o.expect(i, OImmI32); return int32(o.vals[i]) }
func (o Operands) U32(i int) uint32 { o.expect(i, OImmU32); return uint32(o.vals[i]) }
func (o Operands) I64(i int) int64 { o.expect(i, OImmI64); return int64(o.vals[i]) }
func (o Operands) N32(i int) float32 {
	o.expect(i, OImmN32)
	return math.Float32frombits(uint32(o.vals[i]))
}
func (o Operands) N64(i int) float64 {
	o.expect(i, OImmN64)
	return math.Float64frombits(o.vals[i])
}
func (o Operands) StrIdx(i int) uint32   { o.expect(i, OStrIdx); return uint32(o.vals[i]) }
func (o Operands) Branch(i int) uint32   { o.expect(i, OBranch); return uint32(o.vals[i]) }
func (o Operands) LexName(i int) uint32  { o.expect(i, OLexName); return uint32(o.vals[i]) }
func (o Operands) Callsite(i int) uint16 { o.expect(i, OCallsite); return uint16(o.vals[i]) }
func (o Operands) SpeshIdx(i int) uint16 { o.expect(i, OSpeshIdx); return uint16(o.vals[i]) }

func (o Operands) expect(i int, want OperandKind) {
	if i >= len(o.kinds) || o.kinds[i] != want {
		invariantViolation("operand %d kind mismatch in decoded instruction", i)
	}
}

// DecodeNext implements the Decoder contract (spec.md §4.1): given a
// cursor, produce the next opcode and leave the cursor pointing at its
// operands. Operand reads are unaligned little-endian loads at
// statically-known offsets computed from the opcode's OperandKind list.
//
// Returns the opcode, its decoded operands, and the cursor position one
// past the full instruction (opcode + operands) — i.e. where a
// non-branching handler's PC should land.
func DecodeNext(bytecode []byte, pc int) (Opcode, Operands, int, bool) {
	if pc+2 > len(bytecode) {
		return 0, Operands{}, pc, false
	}
	op := Opcode(binary.LittleEndian.Uint16(bytecode[pc:]))
	cursor := pc + 2

	info := Lookup(op)
	if info == nil && op < ExtensionBase {
		// Not in the table and not an extension opcode: let the caller
		// decide (invalid-opcode panic vs NYI) rather than panicking here,
		// since decode itself must stay a pure, always-succeeding contract
		// for well-formed bytecode (Testable Property 1).
		return op, Operands{}, cursor, true
	}
	if info == nil {
		// Extension opcode: width comes from the compilation unit's
		// extension table, not from operands here.
		return op, Operands{}, cursor, true
	}

	vals := make([]uint64, len(info.Operands))
	for i, kind := range info.Operands {
		w := operandWidth(kind)
		if cursor+w > len(bytecode) {
			invariantViolation("truncated operand for opcode %s", info.Name)
		}
		switch w {
		case 1:
			vals[i] = uint64(bytecode[cursor])
		case 2:
			vals[i] = uint64(binary.LittleEndian.Uint16(bytecode[cursor:]))
		case 4:
			vals[i] = uint64(binary.LittleEndian.Uint32(bytecode[cursor:]))
		case 8:
			vals[i] = binary.LittleEndian.Uint64(bytecode[cursor:])
		}
		cursor += w
	}

	return op, Operands{kinds: info.Operands, vals: vals}, cursor, true
}
