// Package spesh is the speculation plugin: a registry of user-supplied
// rewrite hooks the optimizer consults when deciding whether a call site
// is safe to specialize (spec.md §4.3 "Speculation plugin"). Hooks are
// written in Lua and run through yuin/gopher-lua so a host can ship
// optimizer policy as data instead of recompiling the VM — the same
// reasoning the teacher's devices.go gives for keeping device behavior
// pluggable rather than hardcoded into the dispatch loop.
package spesh

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Plugin owns one Lua state per registered hook name. Hooks are pure
// decision functions: given a call-site description they return whether
// specialization should proceed, so a single shared *lua.LState per hook
// is safe to reuse across calls as long as callers serialize through Plugin's
// mutex (gopher-lua's LState is not itself safe for concurrent use).
type Plugin struct {
	mu    sync.Mutex
	hooks map[string]*lua.LState
}

func NewPlugin() *Plugin {
	return &Plugin{hooks: map[string]*lua.LState{}}
}

// Register compiles and loads a Lua source defining a global `resolve`
// function under name, replacing any previous hook with that name.
func (p *Plugin) Register(name, luaSource string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	L := lua.NewState()
	if err := L.DoString(luaSource); err != nil {
		L.Close()
		return fmt.Errorf("spesh: loading hook %q: %w", name, err)
	}
	if old, ok := p.hooks[name]; ok {
		old.Close()
	}
	p.hooks[name] = L
	return nil
}

// Resolve calls the named hook's `resolve(calleeName, argCount)` and
// reports whether it returned a truthy value. A missing hook resolves to
// true (speculation proceeds) — the plugin is opt-out, not opt-in, since
// most call sites never need a policy hook at all.
func (p *Plugin) Resolve(name string, calleeName string, argCount int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	L, ok := p.hooks[name]
	if !ok {
		return true, nil
	}
	fn := L.GetGlobal("resolve")
	if fn.Type() != lua.LTFunction {
		return true, nil
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(calleeName), lua.LNumber(argCount)); err != nil {
		return false, fmt.Errorf("spesh: hook %q: %w", name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func (p *Plugin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, L := range p.hooks {
		L.Close()
	}
}
