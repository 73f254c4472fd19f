package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runArith(t *testing.T, code Opcode, regs []Register) *Frame {
	t.Helper()
	f := &Frame{Registers: regs}
	info := Lookup(code)
	require.NotNil(t, info)
	ops := regOperands(info.Operands, []uint64{0, 1, 2}[:len(info.Operands)])
	require.NoError(t, info.Handler(nil, f, ops))
	return f
}

func TestAddISumsOperands(t *testing.T) {
	f := runArith(t, opAddI, []Register{{}, RegFromI64(2), RegFromI64(3)})
	assert.EqualValues(t, 5, f.Registers[0].I64())
}

func TestDivIFloorsTowardNegativeInfinity(t *testing.T) {
	f := runArith(t, opDivI, []Register{{}, RegFromI64(-7), RegFromI64(2)})
	assert.EqualValues(t, -4, f.Registers[0].I64())
}

func TestDivIByZeroErrors(t *testing.T) {
	f := &Frame{Registers: []Register{{}, RegFromI64(1), RegFromI64(0)}}
	info := Lookup(opDivI)
	ops := regOperands(info.Operands, []uint64{0, 1, 2})
	err := info.Handler(nil, f, ops)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestModIMatchesTruncatingDividendSign(t *testing.T) {
	f := runArith(t, opModI, []Register{{}, RegFromI64(-7), RegFromI64(2)})
	assert.EqualValues(t, -1, f.Registers[0].I64())
}

func TestPowINegativeExponentIsZero(t *testing.T) {
	f := runArith(t, opPowI, []Register{{}, RegFromI64(2), RegFromI64(-1)})
	assert.EqualValues(t, 0, f.Registers[0].I64())
}

func TestPowIBySquaring(t *testing.T) {
	f := runArith(t, opPowI, []Register{{}, RegFromI64(2), RegFromI64(10)})
	assert.EqualValues(t, 1024, f.Registers[0].I64())
}

func TestGcdILcmI(t *testing.T) {
	f := runArith(t, opGcdI, []Register{{}, RegFromI64(12), RegFromI64(18)})
	assert.EqualValues(t, 6, f.Registers[0].I64())

	f = runArith(t, opLcmI, []Register{{}, RegFromI64(4), RegFromI64(6)})
	assert.EqualValues(t, 12, f.Registers[0].I64())
}

func TestShlIMasksShiftAmount(t *testing.T) {
	f := runArith(t, opShlI, []Register{{}, RegFromI64(1), RegFromI64(64)})
	assert.EqualValues(t, 1, f.Registers[0].I64())
}

func TestIntComparisons(t *testing.T) {
	f := runArith(t, opLtI, []Register{{}, RegFromI64(1), RegFromI64(2)})
	assert.True(t, f.Registers[0].Truthy())

	f = runArith(t, opGeI, []Register{{}, RegFromI64(1), RegFromI64(2)})
	assert.False(t, f.Registers[0].Truthy())
}

func TestDivNByZeroErrors(t *testing.T) {
	f := &Frame{Registers: []Register{{}, RegFromN64(1), RegFromN64(0)}}
	info := Lookup(opDivN)
	ops := regOperands(info.Operands, []uint64{0, 1, 2})
	err := info.Handler(nil, f, ops)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCoerceInAndNi(t *testing.T) {
	f := &Frame{Registers: []Register{{}, RegFromI64(5)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hCoerceIn(nil, f, ops))
	assert.InDelta(t, 5.0, f.Registers[0].N64(), 0.0001)

	f = &Frame{Registers: []Register{{}, RegFromN64(3.9)}}
	require.NoError(t, hCoerceNi(nil, f, ops))
	assert.EqualValues(t, 3, f.Registers[0].I64())
}
