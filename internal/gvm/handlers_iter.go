package gvm

// Iteration (spec.md §4.3 "Iteration"). Opcode numbers live in the
// 0x0800-0x08FF range. `iter` wraps a positional or associative aggregate
// in a fresh iterator object. A register holding the iterator is truthy
// like any other object handle (non-zero) and does not reflect whether
// elements remain; `itermovenext` is the opcode that reports that.

const (
	opIter       Opcode = 0x0800
	opIterKeyS   Opcode = 0x0801
	opIterVal    Opcode = 0x0802
	opIterMoveNext Opcode = 0x0803
)

func init() {
	registerOp(opIter, "iter", []OperandKind{OReg, OReg}, hIter)
	registerOp(opIterKeyS, "iterkey_s", []OperandKind{OReg, OReg}, hIterKeyS)
	registerOp(opIterVal, "iterval", []OperandKind{OReg, OReg}, hIterVal)
	registerOp(opIterMoveNext, "itermovenext", []OperandKind{OReg, OReg}, hIterMoveNext)
}

func hIter(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg := ops.Reg(0), ops.Reg(1)
	src := objFromReg(tc, f, srcReg)
	if src == nil {
		return Adhocf("iter: register does not hold an object")
	}
	it := &Obj{IterSource: f.Registers[srcReg].ObjHandle(), IterIndex: 0}
	if src.Assoc != nil && src.Pos == nil {
		keys := make([]string, 0, len(src.Assoc))
		for k := range src.Assoc {
			keys = append(keys, k)
		}
		it.IterKeys = keys
	}
	handle := tc.Instance.RegisterObj(it)
	f.Registers[dest] = RegFromObj(handle)
	return nil
}

func iterHasMore(tc *ThreadContext, it *Obj) bool {
	src := lookupObj(tc, it.IterSource)
	if src == nil {
		return false
	}
	if it.IterKeys != nil {
		return it.IterIndex < len(it.IterKeys)
	}
	return it.IterIndex < len(src.Pos)
}

// hIterMoveNext advances the iterator and writes back whether an element
// was consumed, so `while (itermovenext(tmp, it)) { ... }` loops over the
// iterator's elements.
func hIterMoveNext(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, itReg := ops.Reg(0), ops.Reg(1)
	it := objFromReg(tc, f, itReg)
	if it == nil {
		return Adhocf("itermovenext: register does not hold an iterator")
	}
	hasMore := iterHasMore(tc, it)
	f.Registers[dest] = boolReg(hasMore)
	if hasMore {
		it.IterIndex++
	}
	return nil
}

func hIterKeyS(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, itReg := ops.Reg(0), ops.Reg(1)
	it := objFromReg(tc, f, itReg)
	if it == nil || it.IterKeys == nil {
		return Adhocf("iterkey_s: iterator is not associative")
	}
	pos := it.IterIndex
	if pos > 0 {
		pos--
	}
	if pos >= len(it.IterKeys) {
		return Adhocf("iterkey_s: iterator exhausted")
	}
	f.Registers[dest] = RegFromStr(internString(tc, it.IterKeys[pos]))
	return nil
}

func hIterVal(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, itReg := ops.Reg(0), ops.Reg(1)
	it := objFromReg(tc, f, itReg)
	if it == nil {
		return Adhocf("iterval: register does not hold an iterator")
	}
	src := lookupObj(tc, it.IterSource)
	if src == nil {
		return Adhocf("iterval: source collection is gone")
	}
	pos := it.IterIndex
	if pos > 0 {
		pos--
	}
	if it.IterKeys != nil {
		if pos >= len(it.IterKeys) {
			return Adhocf("iterval: iterator exhausted")
		}
		f.Registers[dest] = src.Assoc[it.IterKeys[pos]]
		return nil
	}
	if pos >= len(src.Pos) {
		return Adhocf("iterval: iterator exhausted")
	}
	f.Registers[dest] = src.Pos[pos]
	return nil
}

// internString is a minimal string-table interner shared by handlers that
// manufacture a fresh string at runtime (concat_s, substr_s, uc_s, lc_s,
// iterkey_s, ...); the real string pool lives per-compilation-unit, but
// runtime-manufactured strings have no compile-time index, so they're
// interned process-globally into Instance.RuntimeStrings instead. The
// returned handle carries runtimeStringFlag so stringFromPool knows which
// pool to resolve it against.
func internString(tc *ThreadContext, s string) uint32 {
	inst := tc.Instance
	if inst.StringConstCache == nil {
		inst.StringConstCache = map[string]uint32{}
	}
	if idx, ok := inst.StringConstCache[s]; ok {
		return idx | runtimeStringFlag
	}
	idx := uint32(len(inst.RuntimeStrings))
	inst.RuntimeStrings = append(inst.RuntimeStrings, s)
	inst.StringConstCache[s] = idx
	return idx | runtimeStringFlag
}
