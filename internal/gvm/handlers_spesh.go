package gvm

import "github.com/kstephano-gvm/coreloop/internal/bigint"

// Specialized (sp_*) opcodes (spec.md §4.3 "Specialized (sp_*) opcodes",
// §4.6). Opcode numbers live in the 0x1000-0x10FF range. Every handler
// here requires f.Candidate != nil — EffectiveSpeshSlot already panics
// if that's violated (frame.go), which is the correct
// behavior per spec.md §7: the optimizer must never emit an sp_* opcode
// into an unspecialized frame, so reaching one without a candidate is a
// verifier-contract violation, not a recoverable error.

const (
	opSpGuard        Opcode = 0x1000
	opSpGuardObj     Opcode = 0x1001
	opSpFastCreate   Opcode = 0x1002
	opSpP6oGet       Opcode = 0x1003
	opSpP6oBind      Opcode = 0x1004
	opSpFastBoxI     Opcode = 0x1005
	opSpFastBoxIIC   Opcode = 0x1006
	opSpFastBoxBiI   Opcode = 0x1007
	opSpFastBoxBiIIC Opcode = 0x1008
	opSpAddI         Opcode = 0x1009
	opSpSubI         Opcode = 0x100A
	opSpMulI         Opcode = 0x100B
	opSpGetSpeshSlot Opcode = 0x100C
	opSpFindMeth     Opcode = 0x100D
	opSpResolveCode  Opcode = 0x100E
	opSpGetLexO      Opcode = 0x100F
	opSpBindLexO     Opcode = 0x1010
	opSpJitEnter     Opcode = 0x1011
	opSpRebless      Opcode = 0x1012
)

func init() {
	registerBranchOp(opSpGuard, "sp_guard", []OperandKind{OReg, OSpeshIdx, OImmU32, OBranch}, hSpGuard)
	registerBranchOp(opSpGuardObj, "sp_guardobj", []OperandKind{OReg, OSpeshIdx, OImmU32, OBranch}, hSpGuardObj)
	registerOp(opSpFastCreate, "sp_fastcreate", []OperandKind{OReg, OSpeshIdx, OImmU16}, hSpFastCreate)
	registerOp(opSpP6oGet, "sp_p6oget_o", []OperandKind{OReg, OReg, OImmU16}, hSpP6oGet)
	registerOp(opSpP6oBind, "sp_p6obind_o", []OperandKind{OReg, OImmU16, OReg}, hSpP6oBind)
	registerOp(opSpFastBoxI, "sp_fastbox_i", []OperandKind{OReg, OSpeshIdx, OReg}, hSpFastBoxI)
	registerOp(opSpFastBoxIIC, "sp_fastbox_i_ic", []OperandKind{OReg, OSpeshIdx, OReg}, hSpFastBoxIIC)
	registerOp(opSpFastBoxBiI, "sp_fastbox_bi", []OperandKind{OReg, OSpeshIdx, OReg}, hSpFastBoxBiI)
	registerOp(opSpFastBoxBiIIC, "sp_fastbox_bi_ic", []OperandKind{OReg, OSpeshIdx, OReg}, hSpFastBoxBiIIC)
	registerOp(opSpAddI, "sp_add_I", []OperandKind{OReg, OReg, OReg}, bigBinOp(bigint.Add))
	registerOp(opSpSubI, "sp_sub_I", []OperandKind{OReg, OReg, OReg}, bigBinOp(bigint.Sub))
	registerOp(opSpMulI, "sp_mul_I", []OperandKind{OReg, OReg, OReg}, bigBinOp(bigint.Mul))
	registerOp(opSpGetSpeshSlot, "sp_getspeshslot", []OperandKind{OReg, OSpeshIdx}, hSpGetSpeshSlot)
	registerOp(opSpFindMeth, "sp_findmeth", []OperandKind{OReg, OReg, OStrIdx, OSpeshIdx}, hSpFindMeth)
	registerInvokeOp(opSpResolveCode, "sp_resolvecode", []OperandKind{OReg, OSpeshIdx}, hSpResolveCode)
	registerOp(opSpGetLexO, "sp_getlex_o", []OperandKind{OReg, OSpeshIdx}, hSpGetLexO)
	registerOp(opSpBindLexO, "sp_bindlex_o", []OperandKind{OSpeshIdx, OReg}, hSpBindLexO)
	registerOp(opSpJitEnter, "sp_jit_enter", nil, hSpJitEnter)
	registerOp(opSpRebless, "sp_rebless", []OperandKind{OReg, OReg, OSpeshIdx}, hSpRebless)
}

// hSpGuard checks a register's integer value against the constant baked
// into the candidate's guard record; on mismatch it records the miss and
// deopts this frame alone rather than branching (spec.md §4.6 "deopt_one
// ... per guard failure").
func hSpGuard(tc *ThreadContext, f *Frame, ops Operands) error {
	reg, slotIdx, deoptIdx := ops.Reg(0), ops.SpeshIdx(1), ops.U32(2)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	got := f.Registers[reg].I64()
	matched := slot.Kind == SlotInt64 && slot.Int == got
	recordGuard(f, opSpGuard, matched, deoptIdx)
	if !matched {
		DeoptOne(tc, f, deoptIdx)
	}
	return nil
}

// hSpGuardObj is sp_guard's Stable-identity counterpart: it verifies an
// object register's Stable pointer still matches what the candidate
// assumed (the guard rebless invalidates).
func hSpGuardObj(tc *ThreadContext, f *Frame, ops Operands) error {
	reg, slotIdx, deoptIdx := ops.Reg(0), ops.SpeshIdx(1), ops.U32(2)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	o := objFromReg(tc, f, reg)
	matched := o != nil && slot.Kind == SlotStable && o.Stable != nil && slot.Obj == tc.Instance.ObjHandleOfStable(o.Stable)
	recordGuard(f, opSpGuardObj, matched, deoptIdx)
	if !matched {
		DeoptOne(tc, f, deoptIdx)
	}
	return nil
}

func recordGuard(f *Frame, op Opcode, matched bool, deoptIdx uint32) {
	if f.Candidate == nil {
		return
	}
	f.Candidate.Guards = append(f.Candidate.Guards, GuardRecord{Opcode: op, Matched: matched, DeoptIdx: deoptIdx})
}

// hSpFastCreate is create's specialized fast path: the Stable is already
// known from the spesh slot, and allocation goes through the GC's
// bump-pointer nursery path rather than the general Allocate (spec.md
// §4.6 "sp_fastcreate").
func hSpFastCreate(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx, size := ops.Reg(0), ops.SpeshIdx(1), ops.U16(2)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	if slot.Kind != SlotStable {
		invariantViolation("sp_fastcreate: spesh slot %d is not a Stable", slotIdx)
	}
	st := tc.Instance.StableFor(slot.Obj)
	if st == nil {
		return Adhocf("sp_fastcreate: stale spesh slot")
	}
	var o *Obj
	if tc.Instance.GC != nil {
		o = tc.Instance.GC.AllocateFast(st, int(size))
	} else {
		o = &Obj{Stable: st}
	}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

// hSpP6oGet/hSpP6oBind are getattr/bindattr by a pre-resolved positional
// index rather than by name, skipping the Representation's name-lookup
// path entirely (spec.md §4.6 "sp_p6oget/bind_* (attribute get/bind: known
// offset)").
func hSpP6oGet(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, idx := ops.Reg(0), ops.Reg(1), ops.U16(2)
	o := objFromReg(tc, f, objReg)
	if o == nil || o.Stable == nil || o.Stable.Repr == nil {
		return Adhocf("sp_p6oget_o: register does not hold a representable object")
	}
	f.Registers[dest] = o.Stable.Repr.GetAttrByIdx(o, int(idx))
	return nil
}

func hSpP6oBind(tc *ThreadContext, f *Frame, ops Operands) error {
	objReg, idx, valReg := ops.Reg(0), ops.U16(1), ops.Reg(2)
	o := objFromReg(tc, f, objReg)
	if o == nil || o.Stable == nil || o.Stable.Repr == nil {
		return Adhocf("sp_p6obind_o: register does not hold a representable object")
	}
	v := f.Registers[valReg]
	o.Stable.Repr.BindAttrByIdx(o, int(idx), v)
	if v.Kind() == KindObj && tc.Instance.GC != nil {
		tc.Instance.GC.WriteBarrier(o, v)
	}
	return nil
}

// hSpFastBoxI/hSpFastBoxIIC implement box_i's specialized fast path: the
// target type is resolved once via the spesh slot instead of re-reading a
// register each call; the _ic ("identity cache") variants additionally
// require the small-int identity guarantee (spec.md Testable Property 10).
func hSpFastBoxI(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx, valReg := ops.Reg(0), ops.SpeshIdx(1), ops.Reg(2)
	return spFastBox(tc, f, dest, slotIdx, valReg, false)
}

func hSpFastBoxIIC(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx, valReg := ops.Reg(0), ops.SpeshIdx(1), ops.Reg(2)
	return spFastBox(tc, f, dest, slotIdx, valReg, true)
}

func hSpFastBoxBiI(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx, valReg := ops.Reg(0), ops.SpeshIdx(1), ops.Reg(2)
	return spFastBox(tc, f, dest, slotIdx, valReg, false)
}

func hSpFastBoxBiIIC(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx, valReg := ops.Reg(0), ops.SpeshIdx(1), ops.Reg(2)
	return spFastBox(tc, f, dest, slotIdx, valReg, true)
}

func spFastBox(tc *ThreadContext, f *Frame, dest uint16, slotIdx uint16, valReg uint16, useIdentityCache bool) error {
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	if slot.Kind != SlotStable {
		invariantViolation("sp_fastbox: spesh slot %d is not a Stable", slotIdx)
	}
	v := f.Registers[valReg].I64()
	if useIdentityCache && v >= -1 && v <= 14 && tc.Instance.GC != nil {
		cached := tc.Instance.GC.BoxSmallInt(v)
		handle := tc.Instance.RegisterObj(cached)
		f.Registers[dest] = RegFromObj(handle)
		return nil
	}
	st := tc.Instance.StableFor(slot.Obj)
	if st == nil {
		return Adhocf("sp_fastbox: stale spesh slot")
	}
	var o *Obj
	if tc.Instance.GC != nil {
		o = tc.Instance.GC.Allocate(st)
	} else {
		o = &Obj{Stable: st}
	}
	if st.Repr != nil {
		st.Repr.BindAttrByIdx(o, 0, RegFromI64(v))
	}
	handle := tc.Instance.RegisterObj(o)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hSpGetSpeshSlot(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx := ops.Reg(0), ops.SpeshIdx(1)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	switch slot.Kind {
	case SlotInt64:
		f.Registers[dest] = RegFromI64(slot.Int)
	case SlotString:
		f.Registers[dest] = RegFromStr(internString(tc, slot.Str))
	default:
		handle := tc.Instance.RegisterObj(&Obj{})
		f.Registers[dest] = RegFromObj(handle)
	}
	return nil
}

// hSpFindMeth is the inline method cache: a specialization candidate may
// have already baked the resolved method straight into this call site's
// spesh slot, in which case that SlotCode entry is used directly and the
// Stable's MethodCache is never touched; otherwise this looks the name up
// in the Stable's MethodCache only, with no further method search
// (spec.md §4.6 "sp_findmeth").
func hSpFindMeth(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, objReg, nameIdx, slotIdx := ops.Reg(0), ops.Reg(1), ops.StrIdx(2), ops.SpeshIdx(3)
	if slot := f.EffectiveSpeshSlot(int(slotIdx)); slot.Kind == SlotCode && slot.Frame != nil {
		code := &CodeRef{Static: slot.Frame, Invoke: invokeStaticFrame(slot.Frame)}
		handle := tc.Instance.RegisterCode(code)
		f.Registers[dest] = RegFromObj(handle)
		return nil
	}

	o := objFromReg(tc, f, objReg)
	if o == nil || o.Stable == nil {
		return Adhocf("sp_findmeth: register does not hold an object")
	}
	name := stringFromPool(tc, f, nameIdx)
	if o.Stable.MethodCache == nil {
		o.Stable.MethodCache = NewMethodCache()
	}
	code, ok := o.Stable.MethodCache.Lookup(name)
	if !ok {
		return Adhocf("sp_findmeth: no method named %q", name)
	}
	handle := tc.Instance.RegisterCode(code)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func hSpResolveCode(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx := ops.Reg(0), ops.SpeshIdx(1)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	if slot.Kind != SlotCode || slot.Frame == nil {
		return Adhocf("sp_resolvecode: spesh slot %d is not a code object", slotIdx)
	}
	code := &CodeRef{Static: slot.Frame, Invoke: invokeStaticFrame(slot.Frame)}
	handle := tc.Instance.RegisterCode(code)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

// invokeStaticFrame builds the InvokeFunc every resolved StaticFrame needs
// (the same bookkeeping doInvoke in callprotocol.go expects from any
// CodeRef): install a fresh Frame and hand the thread's published CurFrame
// pointer to it.
func invokeStaticFrame(static *StaticFrame) InvokeFunc {
	return func(tc *ThreadContext, caller *Frame, pending PendingCall) error {
		child := NewFrame(static, caller)
		child.Pending = pending
		tc.CurFrame = child
		return nil
	}
}

func hSpGetLexO(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, slotIdx := ops.Reg(0), ops.SpeshIdx(1)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	f.Registers[dest] = RegFromObj(slot.Obj)
	return nil
}

func hSpBindLexO(tc *ThreadContext, f *Frame, ops Operands) error {
	slotIdx, srcReg := ops.SpeshIdx(0), ops.Reg(1)
	slot := f.EffectiveSpeshSlot(int(slotIdx))
	slot.Obj = f.Registers[srcReg].ObjHandle()
	f.Candidate.EffectiveSpeshSlots[slotIdx] = slot
	return nil
}

// hSpJitEnter is a placeholder: a real JIT backend is explicitly out of
// scope (spec.md §1), so this opcode is a documented no-op the specializer
// may still emit as a marker.
func hSpJitEnter(tc *ThreadContext, f *Frame, ops Operands) error {
	return nil
}

func hSpRebless(tc *ThreadContext, f *Frame, ops Operands) error {
	objReg, newTypeReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, objReg)
	newType := objFromReg(tc, f, newTypeReg)
	if o == nil || newType == nil {
		return Adhocf("sp_rebless: both operands must be objects")
	}
	o.Stable = newType.Stable
	DeoptAll(tc)
	return nil
}
