package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrowDynUnhandledReturnsUserException(t *testing.T) {
	tc := &ThreadContext{}
	err := Throw(tc, ThrowDyn, 7, 0)
	require.Error(t, err)
	ue, ok := err.(*UserException)
	require.True(t, ok)
	assert.EqualValues(t, 7, ue.Category)
}

func TestThrowDynHandledUnwindsToHandler(t *testing.T) {
	tc := &ThreadContext{}
	handlerFrame := &Frame{}
	PushHandler(tc, ThrowDyn, 3, 128)
	tc.ActiveHandlers[0].Frame = handlerFrame

	err := Throw(tc, ThrowDyn, 3, 55)
	require.NoError(t, err)
	assert.True(t, tc.Unwind.Active)
	assert.Same(t, handlerFrame, tc.Unwind.TargetFrame)
	assert.Equal(t, 128, tc.Unwind.TargetPC)
	assert.EqualValues(t, 55, tc.Unwind.ExceptionObj)
	assert.Empty(t, tc.ActiveHandlers, "matched handler is popped off the chain")
}

func TestThrowPicksInnermostHandlerOfMatchingCategory(t *testing.T) {
	tc := &ThreadContext{}
	PushHandler(tc, ThrowDyn, 1, 10)
	PushHandler(tc, ThrowDyn, 2, 20)

	err := Throw(tc, ThrowDyn, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, tc.Unwind.TargetPC)
	require.Len(t, tc.ActiveHandlers, 1)
	assert.EqualValues(t, 1, tc.ActiveHandlers[0].Category)
}

func TestDieUnhandledCarriesMessage(t *testing.T) {
	tc := &ThreadContext{}
	err := Die(tc, "boom")
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestDieHandledUnwinds(t *testing.T) {
	tc := &ThreadContext{}
	PushHandler(tc, ThrowDyn, -1, 5)
	err := Die(tc, "boom")
	require.NoError(t, err)
	assert.True(t, tc.Unwind.Active)
	assert.Equal(t, 5, tc.Unwind.TargetPC)
}

func TestRethrowReraisesAgainstDyn(t *testing.T) {
	tc := &ThreadContext{}
	PushHandler(tc, ThrowDyn, -1, 77)
	err := Rethrow(tc, 42)
	require.NoError(t, err)
	assert.EqualValues(t, 42, tc.Unwind.ExceptionObj)
}

func TestResumeRetargetsWithoutConsultingHandlers(t *testing.T) {
	tc := &ThreadContext{}
	f := &Frame{}
	Resume(tc, f, 321)
	assert.True(t, tc.Unwind.Active)
	assert.Same(t, f, tc.Unwind.TargetFrame)
	assert.Equal(t, 321, tc.Unwind.TargetPC)
}

func TestBindAndGetExPayload(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	o := &Obj{}
	handle := tc.Instance.RegisterObj(o)
	f := &Frame{Registers: []Register{RegFromObj(handle), RegFromI64(99)}}

	bindOps := regOperands([]OperandKind{OReg, OReg}, []uint64{0, 1})
	require.NoError(t, hBindExPayload(tc, f, bindOps))

	f.Registers = append(f.Registers, Register{})
	getOps := regOperands([]OperandKind{OReg, OReg}, []uint64{2, 0})
	require.NoError(t, hGetExPayload(tc, f, getOps))
	assert.EqualValues(t, 99, f.Registers[2].I64())
}

func TestGetExPayloadRequiresExceptionObject(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Registers: []Register{RegFromI64(5), {}}}
	ops := regOperands([]OperandKind{OReg, OReg}, []uint64{1, 0})
	err := hGetExPayload(tc, f, ops)
	assert.Error(t, err)
}

func TestTakeHandlerResultReadsThreadField(t *testing.T) {
	tc := &ThreadContext{LastHandlerResult: RegFromI64(13)}
	f := &Frame{Registers: make([]Register, 1)}
	ops := regOperands([]OperandKind{OReg}, []uint64{0})
	require.NoError(t, hTakeHandlerResult(tc, f, ops))
	assert.EqualValues(t, 13, f.Registers[0].I64())
}
