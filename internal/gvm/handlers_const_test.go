package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstI64AndI32(t *testing.T) {
	f := &Frame{Registers: make([]Register, 2)}
	ops := regOperands([]OperandKind{OReg, OImmI64}, []uint64{0, uint64(int64(-9001))})
	require.NoError(t, hConstI64(nil, f, ops))
	assert.EqualValues(t, -9001, f.Registers[0].I64())

	ops = regOperands([]OperandKind{OReg, OImmI32}, []uint64{1, uint64(uint32(int32(42)))})
	require.NoError(t, hConstI32(nil, f, ops))
	assert.EqualValues(t, 42, f.Registers[1].I64())
}

func TestSetRequiresMatchingKind(t *testing.T) {
	f := &Frame{Registers: []Register{{}, RegFromI64(7)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	assert.NotPanics(t, func() {
		require.NoError(t, hSet(KindI64)(nil, f, ops))
	})
	assert.EqualValues(t, 7, f.Registers[0].I64())
}

func TestSetPanicsOnKindMismatch(t *testing.T) {
	f := &Frame{Registers: []Register{{}, RegFromI64(7)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	assert.Panics(t, func() {
		_ = hSet(KindStr)(nil, f, ops)
	})
}

func TestNullUsesHandleZero(t *testing.T) {
	f := &Frame{Registers: make([]Register, 1)}
	ops := regOperands([]OperandKind{OReg}, []uint64{0})
	require.NoError(t, hNull(nil, f, ops))
	assert.Equal(t, KindObj, f.Registers[0].Kind())
	assert.EqualValues(t, 0, f.Registers[0].ObjHandle())
}

func TestSmallIntConst(t *testing.T) {
	f := &Frame{Registers: make([]Register, 1)}
	ops := regOperands([]OperandKind{OReg, OImmI8}, []uint64{0, uint64(uint8(int8(-1)))})
	require.NoError(t, hSmallIntConst(nil, f, ops))
	assert.EqualValues(t, -1, f.Registers[0].I64())
}
