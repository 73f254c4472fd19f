package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strFrame(tc *ThreadContext, pool []string, regs ...Register) *Frame {
	return &Frame{Static: &StaticFrame{StringPool: pool}, Registers: regs}
}

func TestConcatSInternsResult(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{"foo", "bar"}, Register{}, RegFromStr(0), RegFromStr(1))
	ops := regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2})
	require.NoError(t, hConcatS(tc, f, ops))
	assert.Equal(t, "foobar", strOf(tc, f, 0))
}

func TestLengthSCountsCodepoints(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{"hello"}, Register{}, RegFromStr(0))
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hLengthS(tc, f, ops))
	assert.EqualValues(t, 5, f.Registers[0].I64())
}

func TestSubstrS(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{"hello"}, Register{}, RegFromStr(0), RegFromI64(1), RegFromI64(3))
	ops := regOperands([]OperandKind{OReg, OReg, OReg, OReg}, []uint64{0, 1, 2, 3})
	require.NoError(t, hSubstrS(tc, f, ops))
	assert.Equal(t, "ell", strOf(tc, f, 0))
}

func TestIndexS(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{"hello", "ll"}, Register{}, RegFromStr(0), RegFromStr(1), RegFromI64(0))
	ops := regOperands([]OperandKind{OReg, OReg, OReg, OReg}, []uint64{0, 1, 2, 3})
	require.NoError(t, hIndexS(tc, f, ops))
	assert.EqualValues(t, 2, f.Registers[0].I64())
}

func TestUcSLcS(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{"Hello"}, Register{}, RegFromStr(0))
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hUcS(tc, f, ops))
	assert.Equal(t, "HELLO", strOf(tc, f, 0))

	require.NoError(t, hLcS(tc, f, ops))
	assert.Equal(t, "hello", strOf(tc, f, 0))
}

func TestEqSNeSLtS(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{"a", "b"}, Register{}, RegFromStr(0), RegFromStr(1))
	ops := regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2})

	require.NoError(t, hEqS(tc, f, ops))
	assert.False(t, f.Registers[0].Truthy())

	require.NoError(t, hNeS(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())

	require.NoError(t, hLtS(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())
}

func TestIsSpaceS(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := strFrame(tc, []string{" "}, Register{}, RegFromStr(0))
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hIsSpaceS(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())
}
