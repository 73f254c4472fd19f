package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstephano-gvm/coreloop/internal/gvm"
)

func TestAssembleFrameBasic(t *testing.T) {
	src := `
		const_i32 r0, 41
		const_i32 r1, 1
		add_i r2, r0, r1
	`
	sf, err := AssembleFrame("main", src)
	require.NoError(t, err)
	assert.Equal(t, "main", sf.Name)
	assert.Equal(t, 3, sf.NumRegisters)
	assert.NotEmpty(t, sf.Bytecode)

	code, ok := gvm.CodeOf("const_i32")
	require.True(t, ok)
	op, ops, next, ok := gvm.DecodeNext(sf.Bytecode, 0)
	require.True(t, ok)
	assert.Equal(t, code, op)
	assert.Equal(t, uint16(0), ops.Reg(0))
	assert.Equal(t, int32(41), ops.I32(1))
	assert.Greater(t, next, 0)
}

func TestAssembleFrameLabelsResolve(t *testing.T) {
	src := `
	loop:
		const_i32 r0, 1
		goto loop
	`
	sf, err := AssembleFrame("loopy", src)
	require.NoError(t, err)

	gotoCode, ok := gvm.CodeOf("goto")
	require.True(t, ok)

	_, _, next, ok := gvm.DecodeNext(sf.Bytecode, 0)
	require.True(t, ok)
	op, ops, _, ok := gvm.DecodeNext(sf.Bytecode, next)
	require.True(t, ok)
	assert.Equal(t, gotoCode, op)
	assert.EqualValues(t, 0, ops.Branch(0))
}

func TestAssembleFrameUndefinedLabel(t *testing.T) {
	_, err := AssembleFrame("bad", "goto nowhere")
	assert.Error(t, err)
}

func TestAssembleFrameUnknownOpcode(t *testing.T) {
	_, err := AssembleFrame("bad", "frobnicate r0")
	assert.Error(t, err)
}

func TestAssembleFrameStringPool(t *testing.T) {
	sf, err := AssembleFrame("strs", `const_s r0, "hello"`)
	require.NoError(t, err)
	require.Len(t, sf.StringPool, 1)
	assert.Equal(t, "hello", sf.StringPool[0])
}

func TestAssembleUnitMultiFrame(t *testing.T) {
	src := `
.frame main
	const_i32 r0, 1
.end
.frame helper
	const_i32 r0, 2
.end
`
	cu, err := AssembleUnit("testhll", src)
	require.NoError(t, err)
	assert.Equal(t, "testhll", cu.HLL)
	require.Len(t, cu.Frames, 2)
	assert.Equal(t, "main", cu.Frames[0].Name)
	assert.Equal(t, "helper", cu.Frames[1].Name)
	assert.Same(t, cu, cu.Frames[0].CU)
}

func TestAssembleUnitUnterminatedFrame(t *testing.T) {
	_, err := AssembleUnit("testhll", ".frame main\nconst_i32 r0, 1\n")
	assert.Error(t, err)
}

func TestSplitArgsRespectsQuotes(t *testing.T) {
	args := splitArgs(`r0, "a, b", 3`)
	assert.Equal(t, []string{"r0", `"a, b"`, "3"}, args)
}
