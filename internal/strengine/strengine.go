// Package strengine implements the VM's string operations: concatenation,
// codepoint-indexed substring/length, case folding, and comparison (spec.md
// §4.3 "String operations"). It is built on unicode/utf8 and
// strings/unicode rather than a third-party grapheme-cluster library:
// none of this module's grounding corpus imports one, and Unicode
// segmentation beyond codepoint counting is out of scope for this VM's
// string opcodes (see DESIGN.md "strengine" for the stdlib justification).
package strengine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Concat implements the `concat_s` opcode.
func Concat(a, b string) string { return a + b }

// Length returns the codepoint count spec.md's string opcodes index by
// (not byte length, and not extended grapheme clusters).
func Length(s string) int64 { return int64(utf8.RuneCountInString(s)) }

// Substring extracts [start, start+count) codepoints, clamping count to
// the available tail the way the teacher's bounds-checked memory accessors
// do (KTStephano-GVM vm/vm.go) rather than panicking on an out-of-range
// request.
func Substring(s string, start, count int64) string {
	runes := []rune(s)
	n := int64(len(runes))
	if start < 0 {
		start = 0
	}
	if start >= n {
		return ""
	}
	end := start + count
	if count < 0 || end > n {
		end = n
	}
	return string(runes[start:end])
}

// IndexOf returns the codepoint index of the first occurrence of needle in
// haystack starting at codepoint offset from, or -1.
func IndexOf(haystack, needle string, from int64) int64 {
	runes := []rune(haystack)
	needleRunes := []rune(needle)
	if from < 0 {
		from = 0
	}
	for i := from; i+int64(len(needleRunes)) <= int64(len(runes)); i++ {
		if runesEqual(runes[i:i+int64(len(needleRunes))], needleRunes) {
			return i
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ToUpper(s string) string { return strings.ToUpper(s) }
func ToLower(s string) string { return strings.ToLower(s) }

// Compare implements lexicographic codepoint ordering for eq_s/lt_s/etc.,
// returning -1/0/1.
func Compare(a, b string) int { return strings.Compare(a, b) }

// IsSpace/IsAlpha/IsDigit back a `classify_s`-style opcode testing a
// single-codepoint string against a Unicode property class.
func IsSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func IsAlpha(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r)
}

func IsDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}
