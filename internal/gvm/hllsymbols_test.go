package gvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTableGetMissingHLL(t *testing.T) {
	st := NewSymbolTable()
	_, ok := st.Get("perl6", "foo")
	assert.False(t, ok)
}

func TestSymbolTableBindAndGet(t *testing.T) {
	st := NewSymbolTable()
	st.Bind("perl6", "&foo", RegFromI64(42))

	v, ok := st.Get("perl6", "&foo")
	require.True(t, ok)
	assert.EqualValues(t, 42, v.I64())

	_, ok = st.Get("nqp", "&foo")
	assert.False(t, ok, "symbols are partitioned per HLL")
}

func TestSymbolTableBindOverwrites(t *testing.T) {
	st := NewSymbolTable()
	st.Bind("perl6", "$x", RegFromI64(1))
	st.Bind("perl6", "$x", RegFromI64(2))

	v, ok := st.Get("perl6", "$x")
	require.True(t, ok)
	assert.EqualValues(t, 2, v.I64())
}
