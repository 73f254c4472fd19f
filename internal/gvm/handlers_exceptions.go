package gvm

// Exceptions, at the opcode level (spec.md §4.3 "Exceptions"). Opcode
// numbers live in the 0x0900-0x09FF range. The actual unwind search lives
// in exceptions.go (Throw/Die/Resume/Rethrow); these handlers just unpack
// operands and hand off to it.

const (
	opThrowDyn        Opcode = 0x0900
	opThrowLex        Opcode = 0x0901
	opThrowLexotic    Opcode = 0x0902
	opThrowPayloadLex Opcode = 0x0903

	opDie     Opcode = 0x0910
	opRethrow Opcode = 0x0911
	opResume  Opcode = 0x0912

	opTakeHandlerResult Opcode = 0x0920

	opBindExPayload Opcode = 0x0930
	opGetExPayload  Opcode = 0x0931
	opGetExCategory Opcode = 0x0932
	opGetExMessage  Opcode = 0x0933
)

func init() {
	registerInvokeOp(opThrowDyn, "throwdyn", []OperandKind{OReg, OImmI32, OReg}, hThrow(ThrowDyn))
	registerInvokeOp(opThrowLex, "throwlex", []OperandKind{OReg, OImmI32, OReg}, hThrow(ThrowLex))
	registerInvokeOp(opThrowLexotic, "throwlexotic", []OperandKind{OReg, OImmI32, OReg}, hThrow(ThrowLexotic))
	registerInvokeOp(opThrowPayloadLex, "throwpayloadlex", []OperandKind{OReg, OImmI32, OReg}, hThrow(ThrowLexCaller))

	registerInvokeOp(opDie, "die", []OperandKind{OReg, OStrIdx}, hDie)
	registerInvokeOp(opRethrow, "rethrow", []OperandKind{OReg}, hRethrow)
	registerInvokeOp(opResume, "resume", []OperandKind{OReg}, hResume)

	registerOp(opTakeHandlerResult, "takehandlerresult", []OperandKind{OReg}, hTakeHandlerResult)

	registerOp(opBindExPayload, "bindexpayload", []OperandKind{OReg, OReg}, hBindExPayload)
	registerOp(opGetExPayload, "getexpayload", []OperandKind{OReg, OReg}, hGetExPayload)
	registerOp(opGetExCategory, "getexcategory", []OperandKind{OReg, OReg}, hGetExCategory)
	registerOp(opGetExMessage, "getexmessage", []OperandKind{OReg, OReg}, hGetExMessage)
}

// hThrow reads (dest-for-result, category, payload-obj) and hands off to
// Throw. The dest operand is neither read nor written here; a handler's
// result is read with takehandlerresult from tc.LastHandlerResult.
func hThrow(kind ThrowKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		category := ops.I32(1)
		payloadReg := ops.Reg(2)
		payload := f.Registers[payloadReg].ObjHandle()
		return Throw(tc, kind, category, payload)
	}
}

func hDie(tc *ThreadContext, f *Frame, ops Operands) error {
	msgIdx := ops.StrIdx(1)
	return Die(tc, stringFromPool(tc, f, msgIdx))
}

func hRethrow(tc *ThreadContext, f *Frame, ops Operands) error {
	payload := f.Registers[ops.Reg(0)].ObjHandle()
	return Rethrow(tc, payload)
}

// hResume implements the `resume` opcode: the currently-active exception's
// throw site recorded its post-throw PC on the handler entry that caught
// it (see PushHandler/HandlerEntry.TargetPC's companion bookkeeping in
// exceptions.go); resuming just re-targets there without consulting the
// handler chain again.
func hResume(tc *ThreadContext, f *Frame, ops Operands) error {
	Resume(tc, f, f.PC)
	return nil
}

func hTakeHandlerResult(tc *ThreadContext, f *Frame, ops Operands) error {
	f.Registers[ops.Reg(0)] = tc.LastHandlerResult
	return nil
}

func hBindExPayload(tc *ThreadContext, f *Frame, ops Operands) error {
	exReg, valReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, exReg)
	if o == nil {
		return Adhocf("bindexpayload: register does not hold an exception object")
	}
	if o.Attrs == nil {
		o.Attrs = map[string]Register{}
	}
	o.Attrs["$payload"] = f.Registers[valReg]
	return nil
}

func hGetExPayload(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, exReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, exReg)
	if o == nil {
		return Adhocf("getexpayload: register does not hold an exception object")
	}
	f.Registers[dest] = o.Attrs["$payload"]
	return nil
}

func hGetExCategory(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, exReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, exReg)
	if o == nil {
		return Adhocf("getexcategory: register does not hold an exception object")
	}
	f.Registers[dest] = o.Attrs["$category"]
	return nil
}

func hGetExMessage(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, exReg := ops.Reg(0), ops.Reg(1)
	o := objFromReg(tc, f, exReg)
	if o == nil {
		return Adhocf("getexmessage: register does not hold an exception object")
	}
	f.Registers[dest] = o.Attrs["$message"]
	return nil
}
