package gvm

// This file implements spec.md §4.4 Call Protocol: prepargs/arg_*/
// argconst_*, invoke_*/invokewithcapture, return/return_*, and the
// checkarity+param_* parameter-reception family. Opcode numbers live in
// the 0x1300-0x13FF range (see opcode_table.go for the shared table).

const (
	opPrepargs Opcode = 0x1300

	opArgI Opcode = 0x1301
	opArgN Opcode = 0x1302
	opArgS Opcode = 0x1303
	opArgO Opcode = 0x1304

	opArgConstI Opcode = 0x1305
	opArgConstN Opcode = 0x1306
	opArgConstS Opcode = 0x1307

	opInvokeV Opcode = 0x1310
	opInvokeI Opcode = 0x1311
	opInvokeN Opcode = 0x1312
	opInvokeS Opcode = 0x1313
	opInvokeO Opcode = 0x1314

	opInvokeWithCapture Opcode = 0x1315

	opReturn   Opcode = 0x1320
	opReturnI  Opcode = 0x1321
	opReturnN  Opcode = 0x1322
	opReturnS  Opcode = 0x1323
	opReturnO  Opcode = 0x1324

	opCheckarity Opcode = 0x1330

	opParamRpI Opcode = 0x1331
	opParamRpN Opcode = 0x1332
	opParamRpS Opcode = 0x1333
	opParamRpO Opcode = 0x1334

	opParamOpI Opcode = 0x1335
	opParamOpN Opcode = 0x1336
	opParamOpS Opcode = 0x1337
	opParamOpO Opcode = 0x1338

	opParamRnI Opcode = 0x1339
	opParamRnN Opcode = 0x133A
	opParamRnS Opcode = 0x133B
	opParamRnO Opcode = 0x133C

	opParamOnI Opcode = 0x133D
	opParamOnN Opcode = 0x133E
	opParamOnS Opcode = 0x133F
	opParamOnO Opcode = 0x1340

	opParamSp Opcode = 0x1341
	opParamSn Opcode = 0x1342

	opParamNamesUsed Opcode = 0x1343

	opParamRn2I Opcode = 0x1344
	opParamRn2N Opcode = 0x1345
	opParamRn2S Opcode = 0x1346
	opParamRn2O Opcode = 0x1347

	opParamOn2I Opcode = 0x1348
	opParamOn2N Opcode = 0x1349
	opParamOn2S Opcode = 0x134A
	opParamOn2O Opcode = 0x134B
)

func init() {
	registerOp(opPrepargs, "prepargs", []OperandKind{OCallsite}, hPrepargs)

	registerOp(opArgI, "arg_i", []OperandKind{OReg}, hArg(KindI64))
	registerOp(opArgN, "arg_n", []OperandKind{OReg}, hArg(KindN64))
	registerOp(opArgS, "arg_s", []OperandKind{OReg}, hArg(KindStr))
	registerOp(opArgO, "arg_o", []OperandKind{OReg}, hArg(KindObj))

	registerOp(opArgConstI, "argconst_i", []OperandKind{OImmI64}, hArgConstI)
	registerOp(opArgConstN, "argconst_n", []OperandKind{OImmN64}, hArgConstN)
	registerOp(opArgConstS, "argconst_s", []OperandKind{OStrIdx}, hArgConstS)

	registerInvokeOp(opInvokeV, "invoke_v", []OperandKind{OReg}, hInvoke(ReturnVoid))
	registerInvokeOp(opInvokeI, "invoke_i", []OperandKind{OReg, OReg}, hInvokeInto(ReturnInt))
	registerInvokeOp(opInvokeN, "invoke_n", []OperandKind{OReg, OReg}, hInvokeInto(ReturnFloat))
	registerInvokeOp(opInvokeS, "invoke_s", []OperandKind{OReg, OReg}, hInvokeInto(ReturnStr))
	registerInvokeOp(opInvokeO, "invoke_o", []OperandKind{OReg, OReg}, hInvokeInto(ReturnObj))

	registerInvokeOp(opInvokeWithCapture, "invokewithcapture", []OperandKind{OReg, OReg}, hInvokeWithCapture)

	registerInvokeOp(opReturn, "return", nil, hReturn(ReturnVoid))
	registerInvokeOp(opReturnI, "return_i", []OperandKind{OReg}, hReturn(ReturnInt))
	registerInvokeOp(opReturnN, "return_n", []OperandKind{OReg}, hReturn(ReturnFloat))
	registerInvokeOp(opReturnS, "return_s", []OperandKind{OReg}, hReturn(ReturnStr))
	registerInvokeOp(opReturnO, "return_o", []OperandKind{OReg}, hReturn(ReturnObj))

	registerOp(opCheckarity, "checkarity", []OperandKind{OImmU16, OImmU16}, hCheckarity)

	registerOp(opParamRpI, "param_rp_i", []OperandKind{OReg, OImmU16}, hParamRp(KindI64))
	registerOp(opParamRpN, "param_rp_n", []OperandKind{OReg, OImmU16}, hParamRp(KindN64))
	registerOp(opParamRpS, "param_rp_s", []OperandKind{OReg, OImmU16}, hParamRp(KindStr))
	registerOp(opParamRpO, "param_rp_o", []OperandKind{OReg, OImmU16}, hParamRp(KindObj))

	registerBranchOp(opParamOpI, "param_op_i", []OperandKind{OReg, OImmU16, OBranch}, hParamOp(KindI64))
	registerBranchOp(opParamOpN, "param_op_n", []OperandKind{OReg, OImmU16, OBranch}, hParamOp(KindN64))
	registerBranchOp(opParamOpS, "param_op_s", []OperandKind{OReg, OImmU16, OBranch}, hParamOp(KindStr))
	registerBranchOp(opParamOpO, "param_op_o", []OperandKind{OReg, OImmU16, OBranch}, hParamOp(KindObj))

	registerOp(opParamRnI, "param_rn_i", []OperandKind{OReg, OStrIdx}, hParamRn(KindI64))
	registerOp(opParamRnN, "param_rn_n", []OperandKind{OReg, OStrIdx}, hParamRn(KindN64))
	registerOp(opParamRnS, "param_rn_s", []OperandKind{OReg, OStrIdx}, hParamRn(KindStr))
	registerOp(opParamRnO, "param_rn_o", []OperandKind{OReg, OStrIdx}, hParamRn(KindObj))

	registerBranchOp(opParamOnI, "param_on_i", []OperandKind{OReg, OStrIdx, OBranch}, hParamOn(KindI64))
	registerBranchOp(opParamOnN, "param_on_n", []OperandKind{OReg, OStrIdx, OBranch}, hParamOn(KindN64))
	registerBranchOp(opParamOnS, "param_on_s", []OperandKind{OReg, OStrIdx, OBranch}, hParamOn(KindStr))
	registerBranchOp(opParamOnO, "param_on_o", []OperandKind{OReg, OStrIdx, OBranch}, hParamOn(KindObj))

	registerOp(opParamSp, "param_sp", []OperandKind{OReg, OImmU16}, hParamSp)
	registerOp(opParamSn, "param_sn", []OperandKind{OReg}, hParamSn)

	registerOp(opParamNamesUsed, "paramnamesused", nil, hParamNamesUsed)

	// Two-name fallback (spec.md §4.4 "try first name, then second"):
	// rn2 is required overall but optional on the first name, so a miss on
	// the first falls back to a required lookup on the second; on2 tries
	// both names as optional and branches like param_on_* if either hits.
	registerOp(opParamRn2I, "param_rn2_i", []OperandKind{OReg, OStrIdx, OStrIdx}, hParamRn2(KindI64))
	registerOp(opParamRn2N, "param_rn2_n", []OperandKind{OReg, OStrIdx, OStrIdx}, hParamRn2(KindN64))
	registerOp(opParamRn2S, "param_rn2_s", []OperandKind{OReg, OStrIdx, OStrIdx}, hParamRn2(KindStr))
	registerOp(opParamRn2O, "param_rn2_o", []OperandKind{OReg, OStrIdx, OStrIdx}, hParamRn2(KindObj))

	registerBranchOp(opParamOn2I, "param_on2_i", []OperandKind{OReg, OStrIdx, OStrIdx, OBranch}, hParamOn2(KindI64))
	registerBranchOp(opParamOn2N, "param_on2_n", []OperandKind{OReg, OStrIdx, OStrIdx, OBranch}, hParamOn2(KindN64))
	registerBranchOp(opParamOn2S, "param_on2_s", []OperandKind{OReg, OStrIdx, OStrIdx, OBranch}, hParamOn2(KindStr))
	registerBranchOp(opParamOn2O, "param_on2_o", []OperandKind{OReg, OStrIdx, OStrIdx, OBranch}, hParamOn2(KindObj))
}

func hParamRn2(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, firstIdx, secondIdx := ops.Reg(0), ops.StrIdx(1), ops.StrIdx(2)
		first := stringFromPool(tc, f, firstIdx)
		if v, ok := takeNamed(f, first); ok {
			f.Registers[dest] = v
			return nil
		}
		second := stringFromPool(tc, f, secondIdx)
		v, ok := takeNamed(f, second)
		if !ok {
			return Adhocf("required named parameter %q (or %q) missing", first, second)
		}
		f.Registers[dest] = v
		return nil
	}
}

func hParamOn2(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, firstIdx, secondIdx, target := ops.Reg(0), ops.StrIdx(1), ops.StrIdx(2), ops.Branch(3)
		first := stringFromPool(tc, f, firstIdx)
		if v, ok := takeNamed(f, first); ok {
			f.Registers[dest] = v
			f.PC = int(target)
			return nil
		}
		second := stringFromPool(tc, f, secondIdx)
		if v, ok := takeNamed(f, second); ok {
			f.Registers[dest] = v
			f.PC = int(target)
		}
		return nil
	}
}

func hPrepargs(tc *ThreadContext, f *Frame, ops Operands) error {
	idx := ops.Callsite(0)
	cs := csTableFor(f).lookup(idx)
	f.Pending = PendingCall{Callsite: cs, Args: make([]Register, 0, cs.Total)}
	return nil
}

func hArg(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		r := f.Registers[ops.Reg(0)]
		if r.Kind() != kind {
			invariantViolation("arg register kind mismatch: wanted %s got %s", kind, r.Kind())
		}
		f.Pending.Args = append(f.Pending.Args, r)
		return nil
	}
}

func hArgConstI(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Pending.Args = append(f.Pending.Args, RegFromI64(ops.I64(0)))
	return nil
}

func hArgConstN(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Pending.Args = append(f.Pending.Args, RegFromN64(ops.N64(0)))
	return nil
}

func hArgConstS(tc *ThreadContext, f *Frame, ops Operands) error {
	idx := ops.StrIdx(0)
	f.Pending.Args = append(f.Pending.Args, RegFromStr(idx))
	return nil
}

// hInvoke/hInvokeInto implement invoke_{v|i|n|s|o} (spec.md §4.4 steps
// 1-4): resolve the callee through the multi-dispatch hook, set up the
// caller's return destination/kind/address, then delegate to the callee's
// stable Invoke function, which installs the new frame and redirects the
// thread context's published pointers. The dispatcher re-reads those on
// its next iteration — nothing here advances into the callee directly.
func hInvoke(kind ReturnKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		return doInvoke(tc, f, ops.Reg(0), nil, ReturnVoid)
	}
}

func hInvokeInto(kind ReturnKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		destIdx := ops.Reg(0)
		calleeReg := ops.Reg(1)
		return doInvoke(tc, f, calleeReg, &f.Registers[destIdx], kind)
	}
}

func doInvoke(tc *ThreadContext, caller *Frame, calleeReg uint16, dest *Register, kind ReturnKind) error {
	calleeHandle := caller.Registers[calleeReg].ObjHandle()
	code := resolveCallee(tc, calleeHandle, &caller.Pending)

	caller.ReturnDest = dest
	caller.ReturnKind = kind
	caller.ReturnAddr = caller.PC

	pending := caller.Pending
	caller.Pending = PendingCall{}

	if code == nil || code.Invoke == nil {
		return Adhocf("cannot invoke register %d: not invokable", calleeReg)
	}

	// Temporary rooting: logging the invokee (spec.md §5) may allocate
	// (string formatting of a user-overridden debug name), so the
	// collaborator is asked to root the callee object across the call.
	if tc.Instance != nil && tc.Instance.GC != nil {
		if obj := lookupObj(tc, calleeHandle); obj != nil {
			token, cur := tc.Instance.GC.RootTemporary(obj)
			_ = cur
			defer tc.Instance.GC.UnrootTemporary(token)
		}
	}

	return code.Invoke(tc, caller, pending)
}

// resolveCallee is the multi-dispatch cache hook (spec.md §4.4 step 1): it
// may rewrite both the callee and the effective callsite, and may mark the
// call as a multi-dispatch hit for speculation logging. The base
// implementation here is a direct passthrough; internal/spesh overlays a
// real cache on top via SetMultiDispatchHook.
func resolveCallee(tc *ThreadContext, calleeHandle uint32, pending *PendingCall) *CodeRef {
	if multiDispatchHook != nil {
		if code, rewrittenCS := multiDispatchHook(tc, calleeHandle, pending.Callsite); code != nil {
			if rewrittenCS != nil {
				pending.Callsite = rewrittenCS
			}
			return code
		}
	}
	return lookupCodeRef(tc, calleeHandle)
}

var multiDispatchHook func(tc *ThreadContext, calleeHandle uint32, cs *Callsite) (*CodeRef, *Callsite)

// SetMultiDispatchHook lets the HLL/spesh layer install a cache hook
// without internal/gvm importing them (avoids an import cycle).
func SetMultiDispatchHook(h func(tc *ThreadContext, calleeHandle uint32, cs *Callsite) (*CodeRef, *Callsite)) {
	multiDispatchHook = h
}

func hInvokeWithCapture(tc *ThreadContext, f *Frame, ops Operands) error {
	destIdx := ops.Reg(0)
	calleeReg := ops.Reg(1)
	return doInvoke(tc, f, calleeReg, &f.Registers[destIdx], ReturnObj)
}

// hReturn/writes the result through the caller's stored return-value
// pointer according to its return-type tag, then asks the frame manager
// (here: plain Go frame-chain walking) to unwind (spec.md §4.4 "Returns").
// Unwinding to nil CurFrame signals "the thread has nothing more to do".
func hReturn(kind ReturnKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		var result Register
		if kind != ReturnVoid {
			result = f.Registers[ops.Reg(0)]
		}
		return doReturn(tc, f, kind, result)
	}
}

func doReturn(tc *ThreadContext, f *Frame, kind ReturnKind, result Register) error {
	caller := f.Caller
	if caller != nil && caller.ReturnDest != nil && kind != ReturnVoid {
		if kind != caller.ReturnKind {
			invariantViolation("return kind mismatch: callee returned %v, caller expected %v", kind, caller.ReturnKind)
		}
		*caller.ReturnDest = result
	}
	if caller != nil {
		caller.PC = caller.ReturnAddr
	}
	tc.Unwind = UnwindRequest{Active: true, TargetFrame: caller, TargetPC: callerPC(caller)}
	return nil
}

func callerPC(caller *Frame) int {
	if caller == nil {
		return 0
	}
	return caller.PC
}

// checkarity validates the pending call's argument count against a
// (min, max) the compiler baked in for this frame's signature; max ==
// 0xFFFF means "unbounded" (a slurpy parameter is present).
func hCheckarity(tc *ThreadContext, f *Frame, ops Operands) error {
	min, max := ops.U16(0), ops.U16(1)
	got := len(f.Pending.Args)
	if got < int(min) || (max != 0xFFFF && got > int(max)) {
		return Adhocf("wrong number of positional arguments: got %d, needed %d..%d", got, min, max)
	}
	return nil
}

func hParamRp(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, idx := ops.Reg(0), ops.U16(1)
		if int(idx) >= len(f.Pending.Args) {
			return Adhocf("required positional parameter %d missing", idx)
		}
		f.Registers[dest] = f.Pending.Args[idx]
		return nil
	}
}

// hParamOp branches to skip-default when present, falls through (letting
// the callee's own const/default opcodes run) when absent (spec.md §4.4
// "optional positional ... which branches when present and falls through
// when absent, so the callee can supply a default").
func hParamOp(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, idx, target := ops.Reg(0), ops.U16(1), ops.Branch(2)
		if int(idx) < len(f.Pending.Args) {
			f.Registers[dest] = f.Pending.Args[idx]
			f.PC = int(target)
		}
		return nil
	}
}

func hParamRn(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, nameIdx := ops.Reg(0), ops.StrIdx(1)
		name := stringFromPool(tc, f, nameIdx)
		v, ok := takeNamed(f, name)
		if !ok {
			return Adhocf("required named parameter %q missing", name)
		}
		f.Registers[dest] = v
		return nil
	}
}

func hParamOn(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, nameIdx, target := ops.Reg(0), ops.StrIdx(1), ops.Branch(2)
		name := stringFromPool(tc, f, nameIdx)
		if v, ok := takeNamed(f, name); ok {
			f.Registers[dest] = v
			f.PC = int(target)
		}
		return nil
	}
}

func hParamSp(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, from := ops.Reg(0), int(ops.U16(1))
	rest := []Register{}
	if from < len(f.Pending.Args) {
		rest = append(rest, f.Pending.Args[from:]...)
	}
	f.Extras = ensureExtras(f)
	f.Extras["slurpy_positional"] = rest
	f.Registers[dest] = RegFromU32(uint32(len(rest)))
	return nil
}

func hParamSn(tc *ThreadContext, f *Frame, ops Operands) error {
	dest := ops.Reg(0)
	f.Extras = ensureExtras(f)
	consumed, _ := f.Extras["named_consumed"].(map[string]bool)
	remaining := map[string]Register{}
	for k, v := range f.Pending.Names2() {
		if !consumed[k] {
			remaining[k] = v
		}
	}
	f.Extras["slurpy_named"] = remaining
	f.Registers[dest] = RegFromU32(uint32(len(remaining)))
	return nil
}

func hParamNamesUsed(tc *ThreadContext, f *Frame, ops Operands) error {
	consumed, _ := f.Extras["named_consumed"].(map[string]bool)
	for _, name := range f.Pending.Names {
		if !consumed[name] {
			return Adhocf("unexpected named argument %q", name)
		}
	}
	return nil
}

func ensureExtras(f *Frame) map[string]any {
	if f.Extras == nil {
		return map[string]any{}
	}
	return f.Extras
}

func takeNamed(f *Frame, name string) (Register, bool) {
	named := f.Pending.Names2()
	v, ok := named[name]
	if ok {
		f.Extras = ensureExtras(f)
		consumed, _ := f.Extras["named_consumed"].(map[string]bool)
		if consumed == nil {
			consumed = map[string]bool{}
		}
		consumed[name] = true
		f.Extras["named_consumed"] = consumed
	}
	return v, ok
}

// Names2 pairs PendingCall.Names with the tail of Args that corresponds to
// named arguments (named args are appended positionally after required
// positionals by convention, mirroring the compiler's layout decisions).
func (p PendingCall) Names2() map[string]Register {
	out := map[string]Register{}
	if len(p.Names) == 0 {
		return out
	}
	start := len(p.Args) - len(p.Names)
	if start < 0 {
		start = 0
	}
	for i, name := range p.Names {
		idx := start + i
		if idx < len(p.Args) {
			out[name] = p.Args[idx]
		}
	}
	return out
}
