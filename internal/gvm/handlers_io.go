package gvm

import "io"

// I/O and system operations (spec.md §4.3 "I/O and system operations").
// Opcode numbers live in the 0x0B00-0x0BFF range. These are thin
// validate-and-forward wrappers (spec.md: "I/O ... is a thin
// validate-and-forward layer onto the host"); the actual stream lives
// behind the Stdout/Stderr package vars so tests and cmd/coreloop can both
// point them wherever they like without the dispatch core importing os
// directly.

var (
	Stdout io.Writer = discardWriter{}
	Stderr io.Writer = discardWriter{}
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

const (
	opSayS   Opcode = 0x0B00
	opPrintS Opcode = 0x0B01
	opExit   Opcode = 0x0B02
)

func init() {
	registerOp(opSayS, "say_s", []OperandKind{OReg}, hSayS)
	registerOp(opPrintS, "print_s", []OperandKind{OReg}, hPrintS)
	registerOp(opExit, "exit", []OperandKind{OReg}, hExit)
}

func hSayS(tc *ThreadContext, f *Frame, ops Operands) error {
	idx := f.Registers[ops.Reg(0)].StrHandle()
	s := stringFromPool(tc, f, idx)
	if _, err := io.WriteString(Stdout, s+"\n"); err != nil {
		return &AdhocError{Msg: ErrIO.Error() + ": " + err.Error()}
	}
	return nil
}

func hPrintS(tc *ThreadContext, f *Frame, ops Operands) error {
	idx := f.Registers[ops.Reg(0)].StrHandle()
	s := stringFromPool(tc, f, idx)
	if _, err := io.WriteString(Stdout, s); err != nil {
		return &AdhocError{Msg: ErrIO.Error() + ": " + err.Error()}
	}
	return nil
}

// hExit implements the `exit` opcode by unwinding the whole frame chain,
// same mechanism a top-level return would use (spec.md §4.4 "Returns") —
// there is no separate process-termination primitive in the dispatch
// core. The exit code is left in tc.LastHandlerResult once Dispatch
// returns; nothing in cmd/coreloop reads it.
func hExit(tc *ThreadContext, f *Frame, ops Operands) error {
	tc.LastHandlerResult = f.Registers[ops.Reg(0)]
	tc.Unwind = UnwindRequest{Active: true, TargetFrame: nil}
	return nil
}
