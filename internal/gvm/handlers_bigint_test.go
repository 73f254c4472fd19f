package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxedBigHandle(t *testing.T, tc *ThreadContext, v int64) Register {
	t.Helper()
	f := &Frame{Registers: []Register{{}, RegFromI64(v)}}
	require.NoError(t, hFromI64(tc, f, regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})))
	return f.Registers[0]
}

func TestFromI64AndToI64RoundTrip(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	boxed := boxedBigHandle(t, tc, 12345)
	f := &Frame{Registers: []Register{{}, boxed}}
	require.NoError(t, hToI64(tc, f, regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})))
	assert.EqualValues(t, 12345, f.Registers[0].I64())
}

func TestAddBigISumsBoxedValues(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	a := boxedBigHandle(t, tc, 10)
	b := boxedBigHandle(t, tc, 20)
	f := &Frame{Registers: []Register{{}, a, b}}
	info := Lookup(opAddBigI)
	require.NoError(t, info.Handler(tc, f, regOperands(info.Operands, []uint64{0, 1, 2})))

	resultF := &Frame{Registers: []Register{{}, f.Registers[0]}}
	require.NoError(t, hToI64(tc, resultF, regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})))
	assert.EqualValues(t, 30, resultF.Registers[0].I64())
}

func TestDivBigIByZeroErrors(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	a := boxedBigHandle(t, tc, 10)
	b := boxedBigHandle(t, tc, 0)
	f := &Frame{Registers: []Register{{}, a, b}}
	err := hDivBigI(tc, f, regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2}))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCmpBigIOrders(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	a := boxedBigHandle(t, tc, 1)
	b := boxedBigHandle(t, tc, 2)
	f := &Frame{Registers: []Register{{}, a, b}}
	require.NoError(t, hCmpBigI(tc, f, regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2})))
	assert.EqualValues(t, -1, f.Registers[0].I64())
}

func TestBigOpRejectsNonBigintRegister(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{{}, RegFromI64(1), RegFromI64(2)}}
	err := hCmpBigI(tc, f, regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2}))
	assert.Error(t, err)
}
