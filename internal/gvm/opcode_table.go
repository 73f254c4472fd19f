package gvm

// Opcode is the 16-bit header that begins every instruction (spec.md §4.1
// "Each instruction begins with a 16-bit opcode").
type Opcode uint16

// ExtensionBase is the opcode number at or above which dispatch goes
// through a compilation unit's per-opcode extension table instead of the
// opTable lookup (spec.md §6 "opcodes >= a reserved extension base dispatch
// through a per-compilation-unit extension table").
const ExtensionBase Opcode = 0xF000

// OperandKind tells the decoder how many bytes to consume for one operand
// slot and how a handler should interpret the bits (spec.md §4.1).
type OperandKind uint8

const (
	OReg      OperandKind = iota // 16-bit register index into the current register file
	OImmI8                       // 8-bit signed immediate
	OImmU8                       // 8-bit unsigned immediate
	OImmI16                      // 16-bit signed immediate
	OImmU16                      // 16-bit unsigned immediate
	OImmI32                      // 32-bit signed immediate
	OImmU32                      // 32-bit unsigned immediate
	OImmI64                      // 64-bit signed immediate
	OImmN32                      // 32-bit IEEE-754 immediate
	OImmN64                      // 64-bit IEEE-754 immediate
	OStrIdx                      // 32-bit index into the compilation unit's string table
	OBranch                      // 32-bit absolute offset from the current frame's bytecode base
	OLexName                     // 32-bit string-table index resolved via hash lookup on the static frame
	OCallsite                    // 16-bit index into the compilation unit's callsite table
	OSpeshIdx                    // 16-bit index into the frame's effective spesh slots
)

// operandWidth is the number of bytes OperandKind occupies in the
// instruction stream. Used by the decoder to compute each operand's
// statically-known offset from the post-opcode cursor.
func operandWidth(k OperandKind) int {
	switch k {
	case OReg, OCallsite, OSpeshIdx:
		return 2
	case OImmI8, OImmU8:
		return 1
	case OImmI16, OImmU16:
		return 2
	case OImmI32, OImmU32, OImmN32, OStrIdx, OBranch, OLexName:
		return 4
	case OImmI64, OImmN64:
		return 8
	default:
		return 0
	}
}

// HandlerFunc implements one opcode: read operands and perform the
// operation (spec.md §2 "Opcode Handlers"). Dispatch has already advanced
// the program counter past the operands; only branching handlers move it
// further. Handlers
// return a non-nil error only for adhoc failures that should unwind
// immediately; user-level throws and deopt go through tc.Unwind directly
// so the dispatcher can tell them apart from an ordinary return.
type HandlerFunc func(tc *ThreadContext, f *Frame, ops Operands) error

// OpInfo is one row of the dispatch table: everything needed to decode and
// execute one opcode.
type OpInfo struct {
	Name     string
	Operands []OperandKind
	Handler  HandlerFunc
	// IsBranch/IsInvoke mark opcodes whose PC advance is NOT simply "skip
	// past the operands" — used by Testable Property 1 (decode determinism).
	IsBranch bool
	IsInvoke bool
}

// opTable is built up by each handlers_*.go file's init(), grouped by
// family to match spec.md §4.3's organization. Once the per-family
// registration macro (registerOp) is established, adding an opcode is
// mechanical — exactly the "~75% mechanical" share spec.md §2 calls out.
var opTable = map[Opcode]*OpInfo{}

// opNameTable mirrors the teacher's strToInstrMap/instrToStrMap pair
// (KTStephano-GVM vm/bytecode.go) for disassembly and the textual
// assembler in internal/asm.
var opNameTable = map[string]Opcode{}

func registerOp(code Opcode, name string, operands []OperandKind, h HandlerFunc) {
	if _, exists := opTable[code]; exists {
		invariantViolation("duplicate opcode registration: %#x (%s)", code, name)
	}
	info := &OpInfo{Name: name, Operands: operands, Handler: h}
	opTable[code] = info
	opNameTable[name] = code
}

func registerBranchOp(code Opcode, name string, operands []OperandKind, h HandlerFunc) {
	registerOp(code, name, operands, h)
	opTable[code].IsBranch = true
}

func registerInvokeOp(code Opcode, name string, operands []OperandKind, h HandlerFunc) {
	registerOp(code, name, operands, h)
	opTable[code].IsInvoke = true
}

// Lookup returns the opcode's dispatch info, or nil if the opcode is
// unrecognized (and below ExtensionBase).
func Lookup(op Opcode) *OpInfo { return opTable[op] }

// NameOf returns the mnemonic for op (for disassembly/tracing).
func NameOf(op Opcode) string {
	if info, ok := opTable[op]; ok {
		return info.Name
	}
	return "?unknown?"
}

// CodeOf returns the opcode value for a mnemonic, used by internal/asm.
func CodeOf(name string) (Opcode, bool) {
	c, ok := opNameTable[name]
	return c, ok
}
