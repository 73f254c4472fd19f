package spesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMissingHookDefaultsTrue(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	ok, err := p.Resolve("nope", "someCallee", 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterAndResolveTrue(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	err := p.Register("always", `function resolve(callee, argc) return true end`)
	require.NoError(t, err)
	ok, err := p.Resolve("always", "foo", 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterAndResolveFalse(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	err := p.Register("never", `function resolve(callee, argc) return false end`)
	require.NoError(t, err)
	ok, err := p.Resolve("never", "foo", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveUsesCalleeAndArgCount(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	err := p.Register("argcheck", `
		function resolve(callee, argc)
			if callee == "hot" and argc == 3 then
				return true
			end
			return false
		end
	`)
	require.NoError(t, err)

	ok, err := p.Resolve("argcheck", "hot", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Resolve("argcheck", "cold", 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterInvalidLuaFails(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	err := p.Register("broken", `this is not valid lua (((`)
	assert.Error(t, err)
}

func TestRegisterReplacesExistingHook(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	require.NoError(t, p.Register("swap", `function resolve(c, a) return true end`))
	ok, _ := p.Resolve("swap", "x", 0)
	assert.True(t, ok)

	require.NoError(t, p.Register("swap", `function resolve(c, a) return false end`))
	ok, _ = p.Resolve("swap", "x", 0)
	assert.False(t, ok)
}

func TestHookMissingResolveFunctionDefaultsTrue(t *testing.T) {
	p := NewPlugin()
	defer p.Close()
	require.NoError(t, p.Register("noresolve", `x = 1`))
	ok, err := p.Resolve("noresolve", "anything", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}
