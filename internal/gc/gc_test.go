package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstephano-gvm/coreloop/internal/gvm"
)

func newInstance() *gvm.Instance {
	return &gvm.Instance{}
}

func TestBootTinyIntsIdentity(t *testing.T) {
	c := New(DefaultConfig())
	intStable := &gvm.Stable{Name: "Int"}
	c.SetIntStable(intStable)
	inst := newInstance()
	c.BootTinyInts(inst)

	for v := int64(-1); v <= 14; v++ {
		handle := inst.TinyIntCache[v+1]
		o := inst.ObjAt(handle)
		require.NotNil(t, o)
		assert.Equal(t, intStable, o.Stable)
	}
}

func TestBoxSmallIntReturnsSamePointer(t *testing.T) {
	c := New(DefaultConfig())
	intStable := &gvm.Stable{Name: "Int"}
	c.SetIntStable(intStable)

	a := c.BoxSmallInt(5)
	b := c.BoxSmallInt(5)
	assert.Same(t, a, b)

	outOfRange := c.BoxSmallInt(100)
	other := c.BoxSmallInt(100)
	assert.NotSame(t, outOfRange, other, "values outside [-1,14] are not cached")
}

func TestBoxSmallIntBoundary(t *testing.T) {
	c := New(DefaultConfig())
	c.SetIntStable(&gvm.Stable{Name: "Int"})

	assert.NotPanics(t, func() { c.BoxSmallInt(-1) })
	assert.NotPanics(t, func() { c.BoxSmallInt(14) })
}

func TestAssertNotFromSpace(t *testing.T) {
	c := New(DefaultConfig())
	o := &gvm.Obj{}
	assert.NotPanics(t, func() { c.AssertNotFromSpace(o) })

	o.FromSpace = true
	assert.Panics(t, func() { c.AssertNotFromSpace(o) })
}

func TestRootTemporaryRoundTrip(t *testing.T) {
	c := New(DefaultConfig())
	o := &gvm.Obj{}
	token, cur := c.RootTemporary(o)
	assert.Same(t, o, cur)
	c.UnrootTemporary(token)
}

func TestCollectSweepsUnreachable(t *testing.T) {
	c := New(Config{NurseryBytes: 0})
	inst := newInstance()
	tc := &gvm.ThreadContext{Instance: inst}

	st := &gvm.Stable{Name: "Array"}
	live := c.Allocate(st)
	dead := c.Allocate(st)

	handle := inst.RegisterObj(live)
	frame := &gvm.Frame{Registers: []gvm.Register{gvm.RegFromObj(handle)}}
	tc.CurFrame = frame

	c.SafePoint(tc)

	assert.False(t, live.FromSpace)
	assert.True(t, dead.FromSpace)
}

func TestCollectHonorsRootTable(t *testing.T) {
	c := New(Config{NurseryBytes: 0})
	inst := newInstance()
	tc := &gvm.ThreadContext{Instance: inst}

	st := &gvm.Stable{Name: "Array"}
	rooted := c.Allocate(st)
	token, _ := c.RootTemporary(rooted)
	defer c.UnrootTemporary(token)

	c.SafePoint(tc)

	assert.False(t, rooted.FromSpace)
}

func TestAllocateFastTracksSize(t *testing.T) {
	c := New(Config{NurseryBytes: 10})
	inst := newInstance()
	tc := &gvm.ThreadContext{Instance: inst}

	st := &gvm.Stable{Name: "Array"}
	o := c.AllocateFast(st, 20)
	assert.NotNil(t, o)

	// 20 >= NurseryBytes(10), so the next SafePoint should trigger a
	// collection rather than being a no-op.
	c.SafePoint(tc)
	assert.True(t, o.FromSpace, "unrooted fast allocation should be swept once due")
}
