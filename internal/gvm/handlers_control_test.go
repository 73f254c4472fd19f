package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGotoUnconditionallyJumps(t *testing.T) {
	tc := &ThreadContext{}
	f := &Frame{PC: 0}
	ops := regOperands([]OperandKind{OBranch}, []uint64{40})
	require.NoError(t, hGoto(tc, f, ops))
	assert.Equal(t, 40, f.PC)
}

func TestIfITakenWhenNonZero(t *testing.T) {
	tc := &ThreadContext{}
	f := &Frame{PC: 4, Registers: []Register{RegFromI64(1)}}
	ops := regOperands([]OperandKind{OReg, OBranch}, []uint64{0, 99})
	require.NoError(t, hIf(KindI64, true)(tc, f, ops))
	assert.Equal(t, 99, f.PC)
}

func TestIfINotTakenWhenZero(t *testing.T) {
	tc := &ThreadContext{}
	f := &Frame{PC: 4, Registers: []Register{RegFromI64(0)}}
	ops := regOperands([]OperandKind{OReg, OBranch}, []uint64{0, 99})
	require.NoError(t, hIf(KindI64, true)(tc, f, ops))
	assert.Equal(t, 4, f.PC)
}

func TestUnlessITakenWhenZero(t *testing.T) {
	tc := &ThreadContext{}
	f := &Frame{PC: 4, Registers: []Register{RegFromI64(0)}}
	ops := regOperands([]OperandKind{OReg, OBranch}, []uint64{0, 50})
	require.NoError(t, hIf(KindI64, false)(tc, f, ops))
	assert.Equal(t, 50, f.PC)
}

func TestJumplistInRangeReadsTable(t *testing.T) {
	tc := &ThreadContext{}
	bytecode := make([]byte, 16)
	// table base at offset 0; entry 1 -> target 0x2a
	bytecode[4] = 0x2a
	f := &Frame{Bytecode: bytecode, Registers: []Register{RegFromI64(1)}}
	ops := regOperands([]OperandKind{OReg, OImmU32, OBranch}, []uint64{0, 4, 0})
	require.NoError(t, hJumplist(tc, f, ops))
	assert.Equal(t, 0x2a, f.PC)
}

func TestJumplistOutOfRangeFallsThrough(t *testing.T) {
	tc := &ThreadContext{}
	f := &Frame{PC: 12, Bytecode: make([]byte, 16), Registers: []Register{RegFromI64(9)}}
	ops := regOperands([]OperandKind{OReg, OImmU32, OBranch}, []uint64{0, 4, 0})
	require.NoError(t, hJumplist(tc, f, ops))
	assert.Equal(t, 16, f.PC)
}
