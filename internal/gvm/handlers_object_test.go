package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepr is a minimal Representation used only to exercise the object
// opcode handlers without pulling in internal/hll's real SlotRepresentation
// (which imports this package, and so can't be imported back from here).
type testRepr struct {
	attrs map[string]Register
}

func (r *testRepr) Name() string { return "test" }
func (r *testRepr) Allocate(st *Stable) *Obj {
	return &Obj{Stable: st, Attrs: map[string]Register{}}
}
func (r *testRepr) CloneInto(dst, src *Obj) {
	for k, v := range src.Attrs {
		dst.Attrs[k] = v
	}
}
// idxKey lets GetAttrByIdx/BindAttrByIdx round-trip through the same
// Attrs map indexed names use, keyed by a name no real attribute can
// collide with.
func idxKey(idx int) string { return "$idx" + string(rune('0'+idx)) }

func (r *testRepr) GetAttrByIdx(o *Obj, idx int) Register {
	return o.Attrs[idxKey(idx)]
}
func (r *testRepr) BindAttrByIdx(o *Obj, idx int, v Register) {
	o.Attrs[idxKey(idx)] = v
}
func (r *testRepr) GetAttrByName(o *Obj, name string) (Register, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}
func (r *testRepr) BindAttrByName(o *Obj, name string, v Register) { o.Attrs[name] = v }
func (r *testRepr) PosGet(o *Obj, i int64) (Register, bool)        { return Register{}, false }
func (r *testRepr) PosBind(o *Obj, i int64, v Register)            {}
func (r *testRepr) AssocGet(o *Obj, key string) (Register, bool)   { return Register{}, false }
func (r *testRepr) AssocBind(o *Obj, key string, v Register)       {}

func TestCreateAllocatesFromStable(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Point", Repr: &testRepr{}}
	typeHandle := tc.Instance.RegisterObj(&Obj{Stable: st})
	f := &Frame{Registers: []Register{{}, RegFromObj(typeHandle)}}

	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hCreate(tc, f, ops))
	assert.Equal(t, KindObj, f.Registers[0].Kind())

	created := tc.Instance.ObjAt(f.Registers[0].ObjHandle())
	require.NotNil(t, created)
	assert.Same(t, st, created.Stable)
}

func TestCreateRejectsNonTypeRegister(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{{}, RegFromI64(0)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	err := hCreate(tc, f, ops)
	assert.Error(t, err)
}

func TestCloneCopiesAttributes(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Point", Repr: &testRepr{}}
	src := &Obj{Stable: st, Attrs: map[string]Register{"x": RegFromI64(5)}}
	srcHandle := tc.Instance.RegisterObj(src)
	f := &Frame{Registers: []Register{{}, RegFromObj(srcHandle)}}

	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hClone(tc, f, ops))

	cloned := tc.Instance.ObjAt(f.Registers[0].ObjHandle())
	require.NotNil(t, cloned)
	assert.NotSame(t, src, cloned)
	assert.EqualValues(t, 5, cloned.Attrs["x"].I64())
}

func TestIsTypeComparesStablePointers(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Point"}
	a := tc.Instance.RegisterObj(&Obj{Stable: st})
	b := tc.Instance.RegisterObj(&Obj{Stable: st})
	other := tc.Instance.RegisterObj(&Obj{Stable: &Stable{Name: "Other"}})

	f := &Frame{Registers: []Register{{}, RegFromObj(a), RegFromObj(b), RegFromObj(other)}}
	ops := regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 2})
	require.NoError(t, hIsType(tc, f, ops))
	assert.True(t, f.Registers[0].Truthy())

	ops = regOperands([]OperandKind{OReg, OReg, OReg}, []uint64{0, 1, 3})
	require.NoError(t, hIsType(tc, f, ops))
	assert.False(t, f.Registers[0].Truthy())
}

func TestReblessSwapsStableAndTriggersDeoptAll(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	oldSt := &Stable{Name: "Old"}
	newSt := &Stable{Name: "New"}
	objHandle := tc.Instance.RegisterObj(&Obj{Stable: oldSt})
	typeHandle := tc.Instance.RegisterObj(&Obj{Stable: newSt})

	f := &Frame{Registers: []Register{RegFromObj(objHandle), RegFromObj(typeHandle)}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hRebless(tc, f, ops))

	updated := tc.Instance.ObjAt(objHandle)
	assert.Same(t, newSt, updated.Stable)
}

func TestGetAttrAndBindAttrByName(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Point", Repr: &testRepr{}}
	o := &Obj{Stable: st, Attrs: map[string]Register{}}
	handle := tc.Instance.RegisterObj(o)
	f := &Frame{
		Static:    &StaticFrame{StringPool: []string{"x"}},
		Registers: []Register{RegFromObj(handle), RegFromI64(17), {}},
	}

	bindOps := regOperands([]OperandKind{OReg, OStrIdx, OReg}, []uint64{0, 0, 1})
	require.NoError(t, hBindAttrByName(tc, f, bindOps))

	getOps := regOperands([]OperandKind{OReg, OReg, OStrIdx}, []uint64{2, 0, 0})
	require.NoError(t, hGetAttrByName(tc, f, getOps))
	assert.EqualValues(t, 17, f.Registers[2].I64())
}

func TestGetAttrByNameMissingAttrErrors(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	st := &Stable{Name: "Point", Repr: &testRepr{}}
	o := &Obj{Stable: st, Attrs: map[string]Register{}}
	handle := tc.Instance.RegisterObj(o)
	f := &Frame{
		Static:    &StaticFrame{StringPool: []string{"missing"}},
		Registers: []Register{{}, RegFromObj(handle)},
	}
	ops := regOperands([]OperandKind{OReg, OReg, OStrIdx}, []uint64{0, 1, 0})
	err := hGetAttrByName(tc, f, ops)
	assert.Error(t, err)
}
