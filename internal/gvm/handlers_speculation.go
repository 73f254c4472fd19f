package gvm

import "github.com/kstephano-gvm/coreloop/internal/spesh"

// Speculation plugin opcodes (spec.md §4.3 "Speculation plugin"). Opcode
// numbers live in the 0x1100-0x11FF range. speshreg installs a named hook
// (internal/spesh, Lua-backed); speshresolve consults it
// before a specialization candidate is allowed to attach to a call site.

const (
	opSpeshReg     Opcode = 0x1100
	opSpeshResolve Opcode = 0x1101
)

func init() {
	registerOp(opSpeshReg, "speshreg", []OperandKind{OStrIdx, OStrIdx}, hSpeshReg)
	registerOp(opSpeshResolve, "speshresolve", []OperandKind{OReg, OStrIdx, OStrIdx, OImmU16}, hSpeshResolve)
}

// pluginRegistry is process-global: the speculation plugin is a property
// of the running VM, not of any one frame or thread (spec.md GLOSSARY
// "Speculation plugin").
var pluginRegistry = spesh.NewPlugin()

func hSpeshReg(tc *ThreadContext, f *Frame, ops Operands) error {
	nameIdx, srcIdx := ops.StrIdx(0), ops.StrIdx(1)
	name := stringFromPool(tc, f, nameIdx)
	source := stringFromPool(tc, f, srcIdx)
	if err := pluginRegistry.Register(name, source); err != nil {
		return &AdhocError{Msg: err.Error()}
	}
	return nil
}

func hSpeshResolve(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, hookIdx, calleeIdx, argCount := ops.Reg(0), ops.StrIdx(1), ops.StrIdx(2), ops.U16(3)
	hook := stringFromPool(tc, f, hookIdx)
	callee := stringFromPool(tc, f, calleeIdx)
	ok, err := pluginRegistry.Resolve(hook, callee, int(argCount))
	if err != nil {
		return &AdhocError{Msg: err.Error()}
	}
	f.Registers[dest] = boolReg(ok)
	return nil
}
