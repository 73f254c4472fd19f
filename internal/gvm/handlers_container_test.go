package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(tc *ThreadContext, initial Register) uint32 {
	o := &Obj{Attrs: map[string]Register{"$value": initial}}
	return tc.Instance.RegisterObj(o)
}

func TestAssignWritesValue(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	handle := newContainer(tc, RegFromI64(1))
	f := &Frame{Registers: []Register{RegFromObj(handle), RegFromI64(99)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hAssign(tc, f, ops))
	assert.EqualValues(t, 99, tc.Instance.ObjAt(handle).Attrs["$value"].I64())
}

func TestAssignRejectsNonContainer(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	handle := tc.Instance.RegisterObj(&Obj{})
	f := &Frame{Registers: []Register{RegFromObj(handle), RegFromI64(1)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	assert.Error(t, hAssign(tc, f, ops))
}

func TestDecontReadsContainerValue(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	handle := newContainer(tc, RegFromI64(7))
	f := &Frame{Registers: []Register{{}, RegFromObj(handle)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hDecont(tc, f, ops))
	assert.EqualValues(t, 7, f.Registers[0].I64())
}

func TestDecontPassesThroughNonContainer(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{{}, RegFromI64(3)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hDecont(tc, f, ops))
	assert.EqualValues(t, 3, f.Registers[0].I64())
}

func TestIsContTrueForContainer(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	handle := newContainer(tc, RegFromI64(0))
	f := &Frame{Registers: []Register{{}, RegFromObj(handle)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hIsCont(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())
}

func TestCasContSucceedsOnMatch(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	handle := newContainer(tc, RegFromI64(5))
	f := &Frame{Registers: []Register{{}, RegFromObj(handle), RegFromI64(5), RegFromI64(6)}}
	ops := regOperands([]OperandKind{OReg, OReg, OReg, OReg}, []uint64{0, 1, 2, 3})
	require.NoError(t, hCasCont(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())
	assert.EqualValues(t, 6, tc.Instance.ObjAt(handle).Attrs["$value"].I64())
}

func TestCasContFailsOnMismatch(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	handle := newContainer(tc, RegFromI64(5))
	f := &Frame{Registers: []Register{{}, RegFromObj(handle), RegFromI64(999), RegFromI64(6)}}
	ops := regOperands([]OperandKind{OReg, OReg, OReg, OReg}, []uint64{0, 1, 2, 3})
	require.NoError(t, hCasCont(tc, f, ops))
	assert.False(t, f.Registers[0].Truthy())
	assert.EqualValues(t, 5, tc.Instance.ObjAt(handle).Attrs["$value"].I64())
}
