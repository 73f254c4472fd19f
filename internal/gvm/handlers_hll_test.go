package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrame(hllName string) (*ThreadContext, *Frame) {
	cu := &CompilationUnit{HLL: hllName}
	sf := &StaticFrame{Name: "test", CU: cu, StringPool: []string{"greet"}}
	f := &Frame{Static: sf, Registers: make([]Register, 4)}
	tc := &ThreadContext{Instance: &Instance{}}
	return tc, f
}

func regOperands(kinds []OperandKind, vals []uint64) Operands {
	return Operands{kinds: kinds, vals: vals}
}

func TestFindMethResolvesCachedMethod(t *testing.T) {
	tc, f := newTestFrame("perl6")
	mc := NewMethodCache()
	code := &CodeRef{}
	mc.Store("greet", code)
	st := &Stable{Name: "Greeter", MethodCache: mc}
	o := &Obj{Stable: st}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[1] = RegFromObj(handle)

	ops := regOperands([]OperandKind{OReg, OReg, OStrIdx}, []uint64{0, 1, 0})
	err := hFindMeth(tc, f, ops)
	require.NoError(t, err)
	assert.Equal(t, KindObj, f.Registers[0].Kind())

	resolved := tc.Instance.CodeAt(f.Registers[0].ObjHandle())
	assert.Same(t, code, resolved)
}

func TestFindMethMissingMethodErrors(t *testing.T) {
	tc, f := newTestFrame("perl6")
	st := &Stable{Name: "Greeter", MethodCache: NewMethodCache()}
	o := &Obj{Stable: st}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[1] = RegFromObj(handle)

	ops := regOperands([]OperandKind{OReg, OReg, OStrIdx}, []uint64{0, 1, 0})
	err := hFindMeth(tc, f, ops)
	assert.Error(t, err)
}

func TestCanReflectsMethodPresence(t *testing.T) {
	tc, f := newTestFrame("perl6")
	mc := NewMethodCache()
	mc.Store("greet", &CodeRef{})
	st := &Stable{Name: "Greeter", MethodCache: mc}
	o := &Obj{Stable: st}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[1] = RegFromObj(handle)

	ops := regOperands([]OperandKind{OReg, OReg, OStrIdx}, []uint64{0, 1, 0})
	require.NoError(t, hCan(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())
}

func TestIsTrueIsFalse(t *testing.T) {
	tc, f := newTestFrame("perl6")
	f.Registers[1] = RegFromI64(0)
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})

	require.NoError(t, hIsTrue(tc, f, ops))
	assert.False(t, f.Registers[0].Truthy())

	require.NoError(t, hIsFalse(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())
}

func TestHllizePassesThroughUnchanged(t *testing.T) {
	tc, f := newTestFrame("perl6")
	f.Registers[1] = RegFromI64(7)
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hHllize(tc, f, ops))
	assert.EqualValues(t, 7, f.Registers[0].I64())
}

func TestBindAndGetCurHllSym(t *testing.T) {
	tc, f := newTestFrame("perl6")
	f.Registers[1] = RegFromI64(123)

	bindOps := regOperands([]OperandKind{OStrIdx, OReg}, []uint64{0, 1})
	require.NoError(t, hBindCurHllSym(tc, f, bindOps))

	getOps := regOperands([]OperandKind{OReg, OStrIdx}, []uint64{2, 0})
	require.NoError(t, hGetCurHllSym(tc, f, getOps))
	assert.EqualValues(t, 123, f.Registers[2].I64())
}

func TestGetCurHllSymUnboundErrors(t *testing.T) {
	tc, f := newTestFrame("perl6")
	getOps := regOperands([]OperandKind{OReg, OStrIdx}, []uint64{0, 0})
	err := hGetCurHllSym(tc, f, getOps)
	assert.Error(t, err)
}

func TestCurHLLPartitionsSymbols(t *testing.T) {
	tc, f := newTestFrame("perl6")
	f.Registers[1] = RegFromI64(1)
	bindOps := regOperands([]OperandKind{OStrIdx, OReg}, []uint64{0, 1})
	require.NoError(t, hBindCurHllSym(tc, f, bindOps))

	_, otherFrame := newTestFrame("nqp")
	otherFrame.Static.StringPool = f.Static.StringPool
	getOps := regOperands([]OperandKind{OReg, OStrIdx}, []uint64{0, 0})
	err := hGetCurHllSym(tc, otherFrame, getOps)
	assert.Error(t, err, "symbols bound under one HLL should not leak to another")
}
