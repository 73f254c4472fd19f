package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstephano-gvm/coreloop/internal/asm"
	"github.com/kstephano-gvm/coreloop/internal/gvm"
	"github.com/kstephano-gvm/coreloop/internal/hll"
	"github.com/kstephano-gvm/coreloop/internal/trace"
)

func TestRunSimpleArithmeticProgram(t *testing.T) {
	src := `
.frame main
	const_i32 r0, 40
	const_i32 r1, 2
	add_i r2, r0, r1
.end
`
	cu, err := asm.AssembleUnit("coreloop", src)
	require.NoError(t, err)

	inst, _ := hll.Boot(hll.DefaultConfig("coreloop"))
	hll.RegisterCompiler(inst, "mainmod", cu)

	tc := hll.NewThread(inst, 1)
	tc.Log = trace.Noop()
	tc.CurFrame = gvm.NewFrame(cu.Frames[0], nil)

	result := gvm.Dispatch(tc)
	assert.True(t, result.Err == nil || result.Err == gvm.ErrProgramFinished)
}

func TestRunLoopWithBranchTerminates(t *testing.T) {
	src := `
.frame main
	const_i32 r0, 3
loop:
	sub_i r0, r0, r0
	if_i r0, loop
.end
`
	cu, err := asm.AssembleUnit("coreloop", src)
	require.NoError(t, err)

	inst, _ := hll.Boot(hll.DefaultConfig("coreloop"))
	tc := hll.NewThread(inst, 1)
	tc.Log = trace.Noop()
	tc.CurFrame = gvm.NewFrame(cu.Frames[0], nil)

	result := gvm.Dispatch(tc)
	assert.True(t, result.Err == nil || result.Err == gvm.ErrProgramFinished)
}

func TestFindFrameLooksUpByName(t *testing.T) {
	src := `
.frame entry
	const_i32 r0, 1
.end
.frame other
	const_i32 r0, 2
.end
`
	cu, err := asm.AssembleUnit("coreloop", src)
	require.NoError(t, err)

	found := findFrame(cu, "other")
	require.NotNil(t, found)
	assert.Equal(t, "other", found.Name)

	assert.Nil(t, findFrame(cu, "missing"))
}
