package nativecall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFailsForUnknownSymbol(t *testing.T) {
	err := Build(Signature{Library: "nope", Symbol: "nope"})
	assert.Error(t, err)
}

func TestRegisterThenBuildSucceeds(t *testing.T) {
	RegisterSymbol("libm", "abs", func(args []Value) (Value, error) {
		return Value{Kind: KindInt, I: args[0].I}, nil
	})
	err := Build(Signature{Library: "libm", Symbol: "abs", Args: []ArgKind{KindInt}, Return: KindInt})
	assert.NoError(t, err)
}

func TestInvokeRoundTrips(t *testing.T) {
	RegisterSymbol("libm", "negate", func(args []Value) (Value, error) {
		return Value{Kind: KindInt, I: -args[0].I}, nil
	})
	sig := Signature{Library: "libm", Symbol: "negate", Args: []ArgKind{KindInt}, Return: KindInt}
	result, err := Invoke(sig, []Value{{Kind: KindInt, I: 5}})
	require.NoError(t, err)
	assert.EqualValues(t, -5, result.I)
}

func TestInvokeRejectsArgCountMismatch(t *testing.T) {
	sig := Signature{Library: "libm", Symbol: "negate", Args: []ArgKind{KindInt}}
	_, err := Invoke(sig, nil)
	assert.Error(t, err)
}

func TestInvokeRejectsArgKindMismatch(t *testing.T) {
	sig := Signature{Library: "libm", Symbol: "negate", Args: []ArgKind{KindInt}}
	_, err := Invoke(sig, []Value{{Kind: KindString, S: "oops"}})
	assert.Error(t, err)
}

func TestInvokeUnregisteredSymbolFails(t *testing.T) {
	sig := Signature{Library: "ghost", Symbol: "missing", Args: nil}
	_, err := Invoke(sig, nil)
	assert.Error(t, err)
}

func TestSizeOf(t *testing.T) {
	assert.Equal(t, 8, SizeOf(KindInt))
	assert.Equal(t, 8, SizeOf(KindUint))
	assert.Equal(t, 8, SizeOf(KindDouble))
	assert.Equal(t, 8, SizeOf(KindPointer))
	assert.Equal(t, 4, SizeOf(KindFloat))
	assert.Equal(t, 0, SizeOf(KindString))
	assert.Equal(t, 0, SizeOf(KindVoid))
}
