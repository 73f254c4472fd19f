package gvm

import "github.com/kstephano-gvm/coreloop/internal/nativecall"

// Native call bridge (spec.md §4.3 "Native call bridge"). Opcode numbers
// live in the 0x0E00-0x0EFF range. nativecallbuild/invoke/refresh/cast/
// sizeof/global all forward onto internal/nativecall, which holds the
// registry of host-provided Go functions standing in for dlsym'd symbols
// (see that package's doc comment for why: no cgo in this module).

const (
	opNativeCallBuild Opcode = 0x0E00
	opNativeCallInvoke Opcode = 0x0E01
	opNativeCallCast   Opcode = 0x0E02
	opNativeCallSizeOf Opcode = 0x0E03

	opNativeInvokeV Opcode = 0x0E04
	opNativeInvokeI Opcode = 0x0E05
	opNativeInvokeN Opcode = 0x0E06
	opNativeInvokeS Opcode = 0x0E07
	opNativeInvokeO Opcode = 0x0E08

	opNativeCallRefresh Opcode = 0x0E09
	opNativeCallGlobal  Opcode = 0x0E0A
)

func init() {
	registerOp(opNativeCallBuild, "nativecallbuild", []OperandKind{OReg, OStrIdx, OStrIdx}, hNativeCallBuild)
	registerInvokeOp(opNativeCallInvoke, "nativecallinvoke", []OperandKind{OReg, OReg, OReg}, hNativeCallInvoke)
	registerOp(opNativeCallCast, "nativecallcast", []OperandKind{OReg, OReg, OImmU8}, hNativeCallCast)
	registerOp(opNativeCallSizeOf, "nativecallsizeof", []OperandKind{OReg, OImmU8}, hNativeCallSizeOf)

	// nativeinvoke_{v|i|n|s|o}: the same built-signature/args-object shape
	// as nativecallinvoke above, just typed per return kind the way
	// invoke_{v|i|n|s|o} is typed in the call protocol, and with no dest
	// register at all for the void variant.
	registerOp(opNativeInvokeV, "nativeinvoke_v", []OperandKind{OReg, OReg}, hNativeInvoke(ReturnVoid))
	registerOp(opNativeInvokeI, "nativeinvoke_i", []OperandKind{OReg, OReg, OReg}, hNativeInvoke(ReturnInt))
	registerOp(opNativeInvokeN, "nativeinvoke_n", []OperandKind{OReg, OReg, OReg}, hNativeInvoke(ReturnFloat))
	registerOp(opNativeInvokeS, "nativeinvoke_s", []OperandKind{OReg, OReg, OReg}, hNativeInvoke(ReturnStr))
	registerOp(opNativeInvokeO, "nativeinvoke_o", []OperandKind{OReg, OReg, OReg}, hNativeInvoke(ReturnObj))

	registerOp(opNativeCallRefresh, "nativecallrefresh", []OperandKind{OReg}, hNativeCallRefresh)
	registerOp(opNativeCallGlobal, "nativecallglobal", []OperandKind{OReg, OStrIdx, OStrIdx}, hNativeCallGlobal)
}

// nativeSignatures maps a handle (stored in the produced object's
// IterSource field, reused here as a generic opaque-handle slot) to the
// Signature nativecallbuild resolved, so nativecallinvoke doesn't need to
// re-parse anything.
var nativeSignatures = map[uint32]nativecall.Signature{}
var nativeSigNext uint32

func hNativeCallBuild(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, libIdx, symIdx := ops.Reg(0), ops.StrIdx(1), ops.StrIdx(2)
	sig := nativecall.Signature{
		Library: stringFromPool(tc, f, libIdx),
		Symbol:  stringFromPool(tc, f, symIdx),
	}
	if err := nativecall.Build(sig); err != nil {
		return &AdhocError{Msg: err.Error()}
	}
	nativeSigNext++
	handle := nativeSigNext
	nativeSignatures[handle] = sig
	obj := &Obj{IterSource: handle}
	objHandle := tc.Instance.RegisterObj(obj)
	f.Registers[dest] = RegFromObj(objHandle)
	return nil
}

func hNativeCallInvoke(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, sigReg, argsReg := ops.Reg(0), ops.Reg(1), ops.Reg(2)
	sigObj := objFromReg(tc, f, sigReg)
	if sigObj == nil {
		return Adhocf("nativecallinvoke: register does not hold a built signature")
	}
	sig, ok := nativeSignatures[sigObj.IterSource]
	if !ok {
		return Adhocf("nativecallinvoke: unknown native signature handle")
	}
	argsObj := objFromReg(tc, f, argsReg)
	var args []nativecall.Value
	if argsObj != nil {
		for _, r := range argsObj.Pos {
			args = append(args, registerToNativeValue(r))
		}
	}
	result, err := nativecall.Invoke(sig, args)
	if err != nil {
		return &AdhocError{Msg: err.Error()}
	}
	f.Registers[dest] = nativeValueToRegister(result)
	return nil
}

func registerToNativeValue(r Register) nativecall.Value {
	switch r.Kind() {
	case KindN64, KindN32:
		return nativecall.Value{Kind: nativecall.KindDouble, F64: r.N64()}
	case KindStr:
		return nativecall.Value{Kind: nativecall.KindString}
	case KindObj:
		return nativecall.Value{Kind: nativecall.KindPointer, Ptr: uintptr(r.ObjHandle())}
	default:
		return nativecall.Value{Kind: nativecall.KindInt, I: r.I64()}
	}
}

func nativeValueToRegister(v nativecall.Value) Register {
	switch v.Kind {
	case nativecall.KindDouble, nativecall.KindFloat:
		return RegFromN64(v.F64)
	case nativecall.KindUint:
		return RegFromU64(v.U)
	default:
		return RegFromI64(v.I)
	}
}

// hNativeInvoke backs nativeinvoke_{v|i|n|s|o}. Like nativecallinvoke,
// these write the native result with the register kind of the value the
// native call returned; the declared return kind only decides whether a
// result is written at all (the void variant writes nothing).
func hNativeInvoke(kind ReturnKind) HandlerFunc {
	return func(tc *ThreadContext, f *Frame, ops Operands) error {
		var destIdx uint16
		var sigIdx, argsIdx int
		if kind == ReturnVoid {
			sigIdx, argsIdx = 0, 1
		} else {
			destIdx = ops.Reg(0)
			sigIdx, argsIdx = 1, 2
		}

		sigObj := objFromReg(tc, f, ops.Reg(sigIdx))
		if sigObj == nil {
			return Adhocf("nativeinvoke: register does not hold a built signature")
		}
		sig, ok := nativeSignatures[sigObj.IterSource]
		if !ok {
			return Adhocf("nativeinvoke: unknown native signature handle")
		}
		argsObj := objFromReg(tc, f, ops.Reg(argsIdx))
		var args []nativecall.Value
		if argsObj != nil {
			for _, r := range argsObj.Pos {
				args = append(args, registerToNativeValue(r))
			}
		}
		result, err := nativecall.Invoke(sig, args)
		if err != nil {
			return &AdhocError{Msg: err.Error()}
		}
		if kind != ReturnVoid {
			f.Registers[destIdx] = nativeValueToRegister(result)
		}
		return nil
	}
}

// hNativeCallRefresh re-validates that a previously built signature's
// symbol is still resolvable, for a host that may unregister/re-register
// native symbols at runtime; there is no native memory layout to refresh
// in-process the way a real dlsym'd struct mirror would need.
func hNativeCallRefresh(tc *ThreadContext, f *Frame, ops Operands) error {
	sigObj := objFromReg(tc, f, ops.Reg(0))
	if sigObj == nil {
		return Adhocf("nativecallrefresh: register does not hold a built signature")
	}
	sig, ok := nativeSignatures[sigObj.IterSource]
	if !ok {
		return Adhocf("nativecallrefresh: unknown native signature handle")
	}
	if err := nativecall.Build(sig); err != nil {
		return &AdhocError{Msg: err.Error()}
	}
	return nil
}

// hNativeCallGlobal resolves a library-global symbol the same way
// nativecallbuild resolves a function symbol, reusing the in-process
// registry rather than a real linker/global-memory model.
func hNativeCallGlobal(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, libIdx, symIdx := ops.Reg(0), ops.StrIdx(1), ops.StrIdx(2)
	sig := nativecall.Signature{
		Library: stringFromPool(tc, f, libIdx),
		Symbol:  stringFromPool(tc, f, symIdx),
	}
	if err := nativecall.Build(sig); err != nil {
		return &AdhocError{Msg: err.Error()}
	}
	nativeSigNext++
	handle := nativeSigNext
	nativeSignatures[handle] = sig
	obj := &Obj{IterSource: handle}
	objHandle := tc.Instance.RegisterObj(obj)
	f.Registers[dest] = RegFromObj(objHandle)
	return nil
}

func hNativeCallCast(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, srcReg, kind := ops.Reg(0), ops.Reg(1), ops.U8(2)
	r := f.Registers[srcReg]
	switch nativecall.ArgKind(kind) {
	case nativecall.KindDouble, nativecall.KindFloat:
		f.Registers[dest] = RegFromN64(float64(r.I64()))
	default:
		f.Registers[dest] = RegFromI64(int64(r.N64()))
	}
	return nil
}

func hNativeCallSizeOf(tc *ThreadContext, f *Frame, ops Operands) error {
	dest, kind := ops.Reg(0), ops.U8(1)
	f.Registers[dest] = RegFromI64(int64(nativecall.SizeOf(nativecall.ArgKind(kind))))
	return nil
}
