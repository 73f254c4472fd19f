package asm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kstephano-gvm/coreloop/internal/gvm"
)

func operandByteWidth(k gvm.OperandKind) int {
	switch k {
	case gvm.OReg, gvm.OCallsite, gvm.OSpeshIdx:
		return 2
	case gvm.OImmI8, gvm.OImmU8:
		return 1
	case gvm.OImmI16, gvm.OImmU16:
		return 2
	case gvm.OImmI32, gvm.OImmU32, gvm.OImmN32, gvm.OStrIdx, gvm.OBranch, gvm.OLexName:
		return 4
	case gvm.OImmI64, gvm.OImmN64:
		return 8
	default:
		return 0
	}
}

func putU16(buf []byte, v uint16) { binary.LittleEndian.PutUint16(buf, v) }

// encodeOperand encodes one textual operand token per its expected kind,
// returning the little-endian byte encoding plus the register index if
// this operand was a register (so callers can track NumRegisters), or -1
// otherwise.
func encodeOperand(kind gvm.OperandKind, tok string, labels map[string]int, pool *stringPool) ([]byte, int, error) {
	switch kind {
	case gvm.OReg:
		r, err := parseRegister(tok)
		if err != nil {
			return nil, -1, err
		}
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(r))
		return buf, r, nil

	case gvm.OImmI8:
		v, err := strconv.ParseInt(tok, 0, 8)
		return []byte{byte(int8(v))}, -1, err
	case gvm.OImmU8:
		v, err := strconv.ParseUint(tok, 0, 8)
		return []byte{byte(uint8(v))}, -1, err

	case gvm.OImmI16:
		v, err := strconv.ParseInt(tok, 0, 16)
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
		return buf, -1, err
	case gvm.OImmU16:
		v, err := strconv.ParseUint(tok, 0, 16)
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(v))
		return buf, -1, err

	case gvm.OImmI32:
		v, err := strconv.ParseInt(tok, 0, 32)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
		return buf, -1, err
	case gvm.OImmU32:
		v, err := strconv.ParseUint(tok, 0, 32)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(v))
		return buf, -1, err
	case gvm.OImmI64:
		v, err := strconv.ParseInt(tok, 0, 64)
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v))
		return buf, -1, err

	case gvm.OImmN32:
		v, err := strconv.ParseFloat(tok, 32)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		return buf, -1, err
	case gvm.OImmN64:
		v, err := strconv.ParseFloat(tok, 64)
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		return buf, -1, err

	case gvm.OStrIdx:
		s, err := parseQuotedString(tok)
		if err != nil {
			return nil, -1, err
		}
		idx := pool.intern(s)
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, idx)
		return buf, -1, nil

	case gvm.OLexName:
		idx := pool.intern(strings.TrimPrefix(tok, "@"))
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, idx)
		return buf, -1, nil

	case gvm.OBranch:
		target, ok := labels[tok]
		if !ok {
			return nil, -1, fmt.Errorf("undefined label %q", tok)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(target))
		return buf, -1, nil

	case gvm.OCallsite, gvm.OSpeshIdx:
		v, err := strconv.ParseUint(tok, 0, 16)
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(v))
		return buf, -1, err
	}
	return nil, -1, fmt.Errorf("unhandled operand kind %v", kind)
}

func parseRegister(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	if !strings.HasPrefix(tok, "r") {
		return 0, fmt.Errorf("expected register (rN), got %q", tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return 0, fmt.Errorf("invalid register %q: %w", tok, err)
	}
	return n, nil
}

func parseQuotedString(tok string) (string, error) {
	tok = strings.TrimSpace(tok)
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", tok)
	}
	unquoted, err := strconv.Unquote(tok)
	if err != nil {
		return "", fmt.Errorf("invalid string literal %q: %w", tok, err)
	}
	return unquoted, nil
}
