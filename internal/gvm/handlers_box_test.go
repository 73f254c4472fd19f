package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxNAllocatesAndBindsViaRepresentation(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Num", Repr: &testRepr{}}
	typeHandle := tc.Instance.RegisterObj(&Obj{Stable: st})
	f := &Frame{Registers: []Register{{}, RegFromN64(3.5), RegFromObj(typeHandle)}}

	ops := regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2})
	require.NoError(t, hBoxN(tc, f, ops))

	unboxOps := regOperands([]OperandKind{OReg, OReg}, []uint64{1, 0})
	require.NoError(t, hUnboxN(tc, f, unboxOps))
	assert.InDelta(t, 3.5, f.Registers[1].N64(), 0.0001)
}

func TestBoxIWithoutTypeRegisterErrors(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{{}, RegFromI64(1000), RegFromI64(0)}}
	ops := regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2})
	err := hBoxI(tc, f, ops)
	assert.Error(t, err)
}

func TestUnboxRequiresObjectRegister(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{{}, RegFromI64(5)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	_, err := unboxed(tc, f, ops.Reg(1))
	assert.Error(t, err)
}

func TestSmrtIntifyPassesThroughMatchingKind(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{{}, RegFromI64(9)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hSmrtIntify(tc, f, ops))
	assert.EqualValues(t, 9, f.Registers[0].I64())
}

func TestSmrtIntifyUnboxesNonMatchingKind(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Box", Repr: &testRepr{}}
	boxed := &Obj{Stable: st, Attrs: map[string]Register{}}
	st.Repr.BindAttrByIdx(boxed, 0, RegFromI64(42))
	handle := tc.Instance.RegisterObj(boxed)
	f := &Frame{Registers: []Register{{}, RegFromObj(handle)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hSmrtIntify(tc, f, ops))
	assert.EqualValues(t, 42, f.Registers[0].I64())
}
