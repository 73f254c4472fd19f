// Package asm is the bytecode loader/assembler (spec.md §1 "the bytecode
// loader and verifier" is explicitly a collaborator the core consumes,
// not implements). It is the textual front end the teacher's
// parse.go/compile.go pair provided for its stack machine — same
// two-pass shape (tokenize-and-locate-labels, then resolve-and-emit) —
// generalized from the teacher's byte-oriented stack opcodes to this
// core's fixed-width register-operand instruction stream
// (internal/gvm/decode.go's OperandKind table).
package asm

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kstephano-gvm/coreloop/internal/gvm"
)

var commentPattern = regexp.MustCompile(`//.*`)

// instrLine is one parsed (pre-resolution) instruction: its mnemonic, raw
// operand tokens, and the byte offset it will occupy once emitted —
// known after the first pass since every operand's width is a pure
// function of the opcode's registered OperandKind list.
type instrLine struct {
	mnemonic string
	args     []string
	offset   int
	lineNo   int
}

// AssembleFrame compiles one frame's worth of textual assembly (no
// .frame/.end wrapper) into a *gvm.StaticFrame with its own fresh string
// pool. AssembleUnit below is the multi-frame entry point; this is its
// single-frame building block and is also useful directly for tests that
// just need one runnable frame.
func AssembleFrame(name, source string) (*gvm.StaticFrame, error) {
	lines, labels, err := firstPass(source)
	if err != nil {
		return nil, err
	}

	sf := &gvm.StaticFrame{Name: name}
	pool := &stringPool{index: map[string]uint32{}}

	var code []byte
	maxReg := -1
	for _, ln := range lines {
		op, ok := gvm.CodeOf(ln.mnemonic)
		if !ok {
			return nil, fmt.Errorf("asm: line %d: unknown opcode %q", ln.lineNo, ln.mnemonic)
		}
		info := gvm.Lookup(op)
		if info == nil {
			return nil, fmt.Errorf("asm: line %d: opcode %q has no operand table entry", ln.lineNo, ln.mnemonic)
		}
		if len(ln.args) != len(info.Operands) {
			return nil, fmt.Errorf("asm: line %d: %s wants %d operands, got %d", ln.lineNo, ln.mnemonic, len(info.Operands), len(ln.args))
		}

		buf := make([]byte, 2)
		putU16(buf, uint16(op))
		for i, kind := range info.Operands {
			enc, reg, err := encodeOperand(kind, ln.args[i], labels, pool)
			if err != nil {
				return nil, fmt.Errorf("asm: line %d: %w", ln.lineNo, err)
			}
			buf = append(buf, enc...)
			if reg > maxReg {
				maxReg = reg
			}
		}
		code = append(code, buf...)
	}

	sf.Bytecode = code
	sf.StringPool = pool.pool
	sf.NumRegisters = maxReg + 1
	return sf, nil
}

// AssembleUnit compiles a multi-frame source file delimited by
// `.frame <name>` / `.end` blocks into a gvm.CompilationUnit, one
// StaticFrame per block, sharing nothing (each frame keeps its own string
// pool, matching AssembleFrame). hll is recorded on the resulting unit the
// way a loaded compunit declares which HLL compiled it (spec.md GLOSSARY
// "Compilation unit").
func AssembleUnit(hll, source string) (*gvm.CompilationUnit, error) {
	cu := &gvm.CompilationUnit{HLL: hll}

	var curName string
	var curBody strings.Builder
	inFrame := false

	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(commentPattern.ReplaceAllString(raw, ""))
		switch {
		case strings.HasPrefix(trimmed, ".frame "):
			if inFrame {
				return nil, fmt.Errorf("asm: line %d: nested .frame before .end", lineNo)
			}
			curName = strings.TrimSpace(strings.TrimPrefix(trimmed, ".frame "))
			curBody.Reset()
			inFrame = true
		case trimmed == ".end":
			if !inFrame {
				return nil, fmt.Errorf("asm: line %d: .end without matching .frame", lineNo)
			}
			sf, err := AssembleFrame(curName, curBody.String())
			if err != nil {
				return nil, err
			}
			sf.CU = cu
			cu.Frames = append(cu.Frames, sf)
			inFrame = false
		default:
			if inFrame {
				curBody.WriteString(raw)
				curBody.WriteByte('\n')
			}
		}
	}
	if inFrame {
		return nil, fmt.Errorf("asm: unterminated .frame %q", curName)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cu, nil
}

// firstPass tokenizes every instruction line, records each label's byte
// offset, and strips comments/blank lines — all without touching the
// string pool, since labels must resolve before any OBranch operand can
// be encoded.
func firstPass(source string) ([]instrLine, map[string]int, error) {
	labels := map[string]int{}
	var lines []instrLine

	offset := 0
	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := commentPattern.ReplaceAllString(scanner.Text(), "")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasSuffix(raw, ":") && !strings.Contains(raw, " ") {
			labels[strings.TrimSuffix(raw, ":")] = offset
			continue
		}

		mnemonic, argStr := splitMnemonic(raw)
		var args []string
		if argStr != "" {
			args = splitArgs(argStr)
		}

		op, ok := gvm.CodeOf(mnemonic)
		if !ok {
			return nil, nil, fmt.Errorf("asm: line %d: unknown opcode %q", lineNo, mnemonic)
		}
		info := gvm.Lookup(op)
		if info == nil {
			return nil, nil, fmt.Errorf("asm: line %d: opcode %q has no operand table entry", lineNo, mnemonic)
		}

		size := 2
		for _, k := range info.Operands {
			size += operandByteWidth(k)
		}

		lines = append(lines, instrLine{mnemonic: mnemonic, args: args, offset: offset, lineNo: lineNo})
		offset += size
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return lines, labels, nil
}

func splitMnemonic(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// splitArgs splits a comma-separated operand list, respecting quoted
// strings (a quoted argument may itself contain commas/spaces).
func splitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

type stringPool struct {
	pool  []string
	index map[string]uint32
}

func (p *stringPool) intern(s string) uint32 {
	if idx, ok := p.index[s]; ok {
		return idx
	}
	idx := uint32(len(p.pool))
	p.pool = append(p.pool, s)
	p.index[s] = idx
	return idx
}
