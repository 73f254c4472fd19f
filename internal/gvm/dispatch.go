package gvm

// RunResult is returned by Dispatch when the loop stops for any reason
// other than a recoverable per-instruction condition.
type RunResult struct {
	Err error
}

// Dispatch runs the fetch-decode-execute loop until a handler signals one
// of (spec.md §4.2): return past the top frame (loop exits), exception
// unwind to a C-level site (here: tc.Unwind populated by the exception
// bridge, restart at its target), or collaborator-redirected execution
// (published pointers moved — the loop continues transparently).
//
// This is the switch/while form spec.md §4.2 and §9 explicitly allow as an
// alternative to computed-goto threading; both forms must produce
// identical observable behavior, and nothing here depends on switch
// specifically — a tail-call-threaded table of HandlerFunc would observe
// the same contract.
func Dispatch(tc *ThreadContext) RunResult {
	for {
		if tc.CurFrame == nil {
			return RunResult{}
		}

		f := tc.CurFrame

		// Re-read cached locals through the published pointers — a
		// collaborator may have transplanted execution into a new frame
		// since the last instruction (spec.md §6, §3 invariants: "After
		// any callee return into the loop, local caches of cur_op/reg_base
		// must be refreshed from the thread context").
		tc.CurOp = f.PC
		tc.BytecodeStart = f.Bytecode
		tc.RegBase = f.Registers
		if f.Static != nil {
			tc.CU = f.Static.CU
		}

		if tc.TracingEnabled != nil && *tc.TracingEnabled {
			traceInstruction(tc, f)
		}

		op, ops, nextPC, ok := DecodeNext(f.Bytecode, f.PC)
		if !ok {
			return RunResult{Err: ErrProgramFinished}
		}

		if op >= ExtensionBase {
			if err := dispatchExtension(tc, f, op, nextPC); err != nil {
				return RunResult{Err: err}
			}
			if !settleUnwind(tc) {
				continue
			}
			continue
		}

		info := Lookup(op)
		if info == nil {
			invariantViolation("invalid opcode %#x reached the dispatcher (verifier contract violated)", op)
		}

		// On entry to a handler f.PC already points at nextPC, past this
		// instruction's operands, which arrive pre-decoded in ops.
		// Handlers that branch or invoke overwrite f.PC themselves.
		f.PC = nextPC

		if err := info.Handler(tc, f, ops); err != nil {
			raiseAdhoc(tc, f, err)
			if tc.Unwind.TargetFrame == nil {
				settleUnwind(tc)
				return RunResult{Err: err}
			}
		}

		if !settleUnwind(tc) {
			continue
		}
	}
}

// dispatchExtension handles opcodes >= ExtensionBase by forwarding to the
// compilation unit's per-opcode extension table (spec.md §6): a callback
// plus a declared operand byte count the dispatcher advances by if the
// callback didn't move the cursor itself.
func dispatchExtension(tc *ThreadContext, f *Frame, op Opcode, cursorAfterOpcode int) error {
	if f.Static == nil || f.Static.CU == nil {
		return Adhocf("extension opcode %#x with no compilation unit", op)
	}
	ext, ok := f.Static.CU.ExtOpTable[op]
	if !ok {
		invariantViolation("unregistered extension opcode %#x", op)
	}
	before := f.PC
	f.PC = cursorAfterOpcode + ext.OperandBytes
	if err := ext.Callback(tc); err != nil {
		return err
	}
	if f.PC == cursorAfterOpcode+ext.OperandBytes && before != f.PC {
		// callback left the default advance in place; nothing to do
	}
	return nil
}

// settleUnwind checks tc.Unwind after a handler call. If an unwind was
// requested it repositions CurFrame/PC at the target and clears the
// request, returning false to tell the caller a `continue` already
// happened implicitly (kept as a plain bool for readability at call sites).
func settleUnwind(tc *ThreadContext) bool {
	if !tc.Unwind.Active {
		return true
	}
	tc.CurFrame = tc.Unwind.TargetFrame
	if tc.CurFrame != nil {
		tc.CurFrame.PC = tc.Unwind.TargetPC
	}
	tc.Unwind = UnwindRequest{}
	return false
}
