package gvm

// raiseAdhoc turns a Go error returned by a handler into an unwind request:
// walk the active-handler chain for a matching handler (any kind catches
// an adhoc error), or leave tc.Unwind pointing nowhere so Dispatch reports
// it as the terminating error (spec.md §7 kind 1).
func raiseAdhoc(tc *ThreadContext, f *Frame, err error) {
	if h, ok := popMatchingHandler(tc, ThrowDyn, -1); ok {
		tc.Unwind = UnwindRequest{Active: true, TargetFrame: h.Frame, TargetPC: h.TargetPC, Err: err}
		return
	}
	tc.Unwind = UnwindRequest{Active: true, TargetFrame: nil, Err: err}
}

// Throw implements throwdyn/throwlex/throwlexotic/throwpayloadlex* (spec.md
// §4.3 "Exceptions"). category identifies the exception kind for handlers
// installed by category; payload is the thrown object's handle (0 if
// none). It scans tc.ActiveHandlers from the most recently pushed entry:
// a ThrowDyn throw matches a handler of any kind, any other kind matches
// only handlers pushed with that same kind, and a negative category
// matches any category. The caller and lexical-outer frame chains are not
// walked; the frame a handler resumes in is the one PushHandler recorded.
// The matched handler and every handler pushed after it are popped.
//
// A matching handler re-enters the loop at its entry point with the
// exception object bound where the handler requested (spec.md §7 kind 2).
func Throw(tc *ThreadContext, kind ThrowKind, category int32, payload uint32) error {
	h, ok := popMatchingHandler(tc, kind, category)
	if !ok {
		return &UserException{Category: category, Message: "unhandled exception"}
	}
	tc.Unwind = UnwindRequest{
		Active:       true,
		TargetFrame:  h.Frame,
		TargetPC:     h.TargetPC,
		ExceptionObj: payload,
		HasException: true,
	}
	return nil
}

// Die implements the `die` opcode: a string-message throw with no prior
// payload object (spec.md §4.3, Scenario D).
func Die(tc *ThreadContext, message string) error {
	h, ok := popMatchingHandler(tc, ThrowDyn, -1)
	if !ok {
		return &UserException{Message: message}
	}
	tc.Unwind = UnwindRequest{Active: true, TargetFrame: h.Frame, TargetPC: h.TargetPC, HasException: true}
	tc.LastHandlerResult = RegFromI64(0)
	_ = message
	return nil
}

func popMatchingHandler(tc *ThreadContext, kind ThrowKind, category int32) (HandlerEntry, bool) {
	for i := len(tc.ActiveHandlers) - 1; i >= 0; i-- {
		h := tc.ActiveHandlers[i]
		if category >= 0 && h.Category != category {
			continue
		}
		if kind == ThrowDyn || h.Kind == kind {
			tc.ActiveHandlers = tc.ActiveHandlers[:i]
			return h, true
		}
	}
	return HandlerEntry{}, false
}

// PushHandler installs an exception handler for the current frame
// (`pushhandler`-style bookkeeping the compiler emits before a protected
// region).
func PushHandler(tc *ThreadContext, kind ThrowKind, category int32, targetPC int) {
	tc.ActiveHandlers = append(tc.ActiveHandlers, HandlerEntry{
		Kind: kind, Category: category, Frame: tc.CurFrame, TargetPC: targetPC,
	})
}

// Resume implements the `resume` opcode: returns control to the
// instruction immediately after the original throw site (spec.md Scenario
// D, "`resume` returns to the throw site+1"). resumePC is recorded by the
// throwing handler before it unwinds.
func Resume(tc *ThreadContext, frame *Frame, resumePC int) {
	tc.Unwind = UnwindRequest{Active: true, TargetFrame: frame, TargetPC: resumePC}
}

// Rethrow re-raises the thread's last caught exception object against the
// next outer handler.
func Rethrow(tc *ThreadContext, payload uint32) error {
	return Throw(tc, ThrowDyn, -1, payload)
}

// preIncrementPC is called by every handler spec.md §4.5 lists as able to
// invoke arbitrary user-level code through a collaborator: coercion,
// method finding, container fetch, get-attribute, istrue/isfalse. It must
// run before the collaborator call so that, if the collaborator's user
// code throws and control later longjmps back here, the restart address is
// the next instruction rather than the current one.
//
// Design Open Question (c): once called, this handler cannot rewind and
// retry — the PC has already moved past it. Callers of smrt_intify,
// smrt_numify and smrt_strify in particular must not assume they can
// re-execute the coercion opcode itself.
func preIncrementPC(f *Frame, alreadyAt int) {
	f.PC = alreadyAt
}
