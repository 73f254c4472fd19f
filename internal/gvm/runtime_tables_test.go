package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringFromPoolCompileTime(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Static: &StaticFrame{StringPool: []string{"alpha", "beta"}}}

	assert.Equal(t, "alpha", stringFromPool(tc, f, 0))
	assert.Equal(t, "beta", stringFromPool(tc, f, 1))
}

func TestStringFromPoolRuntimeInterned(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Static: &StaticFrame{StringPool: []string{"compiletime"}}}

	handle := internString(tc, "manufactured")
	require.NotZero(t, handle&runtimeStringFlag)
	assert.Equal(t, "manufactured", stringFromPool(tc, f, handle))

	// compile-time pool is untouched and still resolves through the same
	// function with a plain (unflagged) index.
	assert.Equal(t, "compiletime", stringFromPool(tc, f, 0))
}

func TestInternStringDeduplicates(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	a := internString(tc, "same")
	b := internString(tc, "same")
	assert.Equal(t, a, b)
	assert.Len(t, tc.Instance.RuntimeStrings, 1)
}

func TestStringFromPoolOutOfRange(t *testing.T) {
	tc := &ThreadContext{Instance: &Instance{}}
	f := &Frame{Static: &StaticFrame{}}
	assert.Equal(t, "", stringFromPool(tc, f, 5))
}
