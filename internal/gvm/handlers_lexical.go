package gvm

// Lexical access (spec.md §4.3 "Lexical access"). Opcode numbers live in
// the 0x0500-0x05FF range. getlex/bindlex address a lexical by a
// compile-time-resolved (depth, index) pair and walk LexicalOuter depth
// times; getlex_no/bindlex_no walk the same chain but resolve by name
// against each frame's static lexical-name table. Only the lexical-outer
// chain is searched, not the caller chain. A getlex_no miss yields the
// null object (handle 0); a bindlex_no miss is an adhoc error.

const (
	opGetLexI Opcode = 0x0500
	opGetLexN Opcode = 0x0501
	opGetLexS Opcode = 0x0502
	opGetLexO Opcode = 0x0503

	opBindLexI Opcode = 0x0510
	opBindLexN Opcode = 0x0511
	opBindLexS Opcode = 0x0512
	opBindLexO Opcode = 0x0513

	opGetLexNameO Opcode = 0x0520
	opBindLexNameO Opcode = 0x0521

	opGetDynLex  Opcode = 0x0530
	opBindDynLex Opcode = 0x0531
)

func init() {
	registerOp(opGetLexI, "getlex_i", []OperandKind{OReg, OImmU16, OImmU16}, hGetLex(KindI64))
	registerOp(opGetLexN, "getlex_n", []OperandKind{OReg, OImmU16, OImmU16}, hGetLex(KindN64))
	registerOp(opGetLexS, "getlex_s", []OperandKind{OReg, OImmU16, OImmU16}, hGetLex(KindStr))
	registerOp(opGetLexO, "getlex_o", []OperandKind{OReg, OImmU16, OImmU16}, hGetLex(KindObj))

	registerOp(opBindLexI, "bindlex_i", []OperandKind{OImmU16, OImmU16, OReg}, hBindLex(KindI64))
	registerOp(opBindLexN, "bindlex_n", []OperandKind{OImmU16, OImmU16, OReg}, hBindLex(KindN64))
	registerOp(opBindLexS, "bindlex_s", []OperandKind{OImmU16, OImmU16, OReg}, hBindLex(KindStr))
	registerOp(opBindLexO, "bindlex_o", []OperandKind{OImmU16, OImmU16, OReg}, hBindLex(KindObj))

	registerOp(opGetLexNameO, "getlex_no", []OperandKind{OReg, OLexName}, hGetLexByName)
	registerOp(opBindLexNameO, "bindlex_no", []OperandKind{OLexName, OReg}, hBindLexByName)

	registerOp(opGetDynLex, "getdynlex", []OperandKind{OReg, OLexName}, hGetDynLex)
	registerOp(opBindDynLex, "binddynlex", []OperandKind{OLexName, OReg}, hBindDynLex)
}

func outerAt(f *Frame, depth uint16) *Frame {
	cur := f
	for i := uint16(0); i < depth; i++ {
		if cur == nil {
			return nil
		}
		cur = cur.LexicalOuter
	}
	return cur
}

func hGetLex(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		dest, depth, idx := ops.Reg(0), ops.U16(1), ops.U16(2)
		target := outerAt(f, depth)
		if target == nil || int(idx) >= len(target.Lexicals) {
			invariantViolation("getlex_%s: depth %d index %d out of range", kind, depth, idx)
		}
		f.Registers[dest] = target.Lexicals[idx]
		return nil
	}
}

func hBindLex(kind RegKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		depth, idx, src := ops.U16(0), ops.U16(1), ops.Reg(2)
		target := outerAt(f, depth)
		if target == nil || int(idx) >= len(target.Lexicals) {
			invariantViolation("bindlex_%s: depth %d index %d out of range", kind, depth, idx)
		}
		target.Lexicals[idx] = f.Registers[src]
		return nil
	}
}

// hGetLexByName walks the lexical-outer chain comparing against each
// frame's static lexical-name table (spec.md "getlex_no/getlex_ns lookup
// by name rather than a resolved depth/index, for dynamically-compiled
// code that hasn't had its lexical offsets fixed up yet").
func hGetLexByName(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, nameIdx := ops.Reg(0), ops.LexName(1)
	name := stringFromPool(tc, f, nameIdx)
	for cur := f; cur != nil; cur = cur.LexicalOuter {
		if cur.Static == nil {
			continue
		}
		for i, n := range cur.Static.LexicalNames {
			if n == name {
				f.Registers[dest] = cur.Lexicals[i]
				return nil
			}
		}
	}
	f.Registers[dest] = RegFromObj(0)
	return nil
}

func hBindLexByName(tc *ThreadContext, f *Frame, ops Operands) error {
	nameIdx, src := ops.LexName(0), ops.Reg(1)
	name := stringFromPool(tc, f, nameIdx)
	for cur := f; cur != nil; cur = cur.LexicalOuter {
		if cur.Static == nil {
			continue
		}
		for i, n := range cur.Static.LexicalNames {
			if n == name {
				cur.Lexicals[i] = f.Registers[src]
				return nil
			}
		}
	}
	return Adhocf("no lexical named %q in scope", name)
}

// hGetDynLex/hBindDynLex implement getdynlex/binddynlex: search the
// *caller* chain (dynamic scope) rather than the lexical-outer chain, used
// for control exceptions and dynamic variables (spec.md GLOSSARY
// "dynamic scope").
func hGetDynLex(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, nameIdx := ops.Reg(0), ops.LexName(1)
	name := stringFromPool(tc, f, nameIdx)
	for cur := f; cur != nil; cur = cur.Caller {
		if cur.Static == nil {
			continue
		}
		for i, n := range cur.Static.LexicalNames {
			if n == name {
				f.Registers[dest] = cur.Lexicals[i]
				return nil
			}
		}
	}
	return Adhocf("no dynamic lexical named %q in scope", name)
}

func hBindDynLex(tc *ThreadContext, f *Frame, ops Operands) error {
	nameIdx, src := ops.LexName(0), ops.Reg(1)
	name := stringFromPool(tc, f, nameIdx)
	for cur := f; cur != nil; cur = cur.Caller {
		if cur.Static == nil {
			continue
		}
		for i, n := range cur.Static.LexicalNames {
			if n == name {
				cur.Lexicals[i] = f.Registers[src]
				return nil
			}
		}
	}
	return Adhocf("no dynamic lexical named %q in scope", name)
}
