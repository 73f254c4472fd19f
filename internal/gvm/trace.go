package gvm

import "fmt"

// traceInstruction implements spec.md §6 "Tracing": when tracing_enabled is
// set, each iteration of the loop writes a one-line trace of the decoded
// opcode and a backtrace line to stderr. The teacher's debug mode
// (KTStephano-GVM vm/run.go RunProgramDebugMode) prints similar state with
// plain fmt.Println; here the same line goes through zap so it carries
// structured fields (frame name, pc) when a real logger is wired, and
// still degrades to a formatted line on the package's Stderr writer if
// tc.Log is nil (e.g. in tests that construct a bare ThreadContext).
func traceInstruction(tc *ThreadContext, f *Frame) {
	op, _, _, ok := DecodeNext(f.Bytecode, f.PC)
	name := "<eof>"
	if ok {
		name = NameOf(op)
	}

	bt := backtraceLine(f)

	if tc.Log != nil {
		tc.Log.Debugw("dispatch", "pc", f.PC, "op", name, "frame", staticName(f), "backtrace", bt)
		return
	}
	fmt.Fprintf(Stderr, "trace> pc=%d op=%s frame=%s %s\n", f.PC, name, staticName(f), bt)
}

func staticName(f *Frame) string {
	if f == nil || f.Static == nil {
		return "<anon>"
	}
	return f.Static.Name
}

func backtraceLine(f *Frame) string {
	line := ""
	for cur := f; cur != nil; cur = cur.Caller {
		if line != "" {
			line += " <- "
		}
		line += staticName(cur)
	}
	return line
}
