package encoding

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// CodeRange classifies a byte sequence against its encoding.
type CodeRange int32

// Code ranges. The zero value is unknown.
const (
	CodeRangeUnknown CodeRange = iota
	CodeRange7Bit
	CodeRangeValid
	CodeRangeBroken
)

// String returns the code range name.
func (c CodeRange) String() string {
	switch c {
	case CodeRangeUnknown:
		return "UNKNOWN"
	case CodeRange7Bit:
		return "7BIT"
	case CodeRangeValid:
		return "VALID"
	case CodeRangeBroken:
		return "BROKEN"
	default:
		return "CodeRange(?)"
	}
}

// Scan classifies b and counts its characters. Each byte of an invalid
// sequence counts as one character.
func (e *Encoding) Scan(b []byte) (CodeRange, int) {
	if e.asciiCompatible && isASCII(b) {
		return CodeRange7Bit, len(b)
	}

	switch e.kind {
	case kindBinary:
		return CodeRangeValid, len(b)
	case kindASCII:
		return CodeRangeBroken, len(b)
	case kindUTF8:
		if utf8.Valid(b) {
			return CodeRangeValid, utf8.RuneCount(b)
		}
		return CodeRangeBroken, utf8.RuneCount(b)
	case kindCharmap:
		return e.scanCharmap(b)
	default:
		return e.scanMultibyte(b)
	}
}

// CodeRangeOf returns just the classification of b.
func (e *Encoding) CodeRangeOf(b []byte) CodeRange {
	cr, _ := e.Scan(b)
	return cr
}

// CharacterLength returns just the character count of b.
func (e *Encoding) CharacterLength(b []byte) int {
	_, n := e.Scan(b)
	return n
}

func (e *Encoding) scanCharmap(b []byte) (CodeRange, int) {
	cr := CodeRangeValid
	for _, c := range b {
		if e.charmap.DecodeByte(c) == utf8.RuneError {
			cr = CodeRangeBroken
		}
	}
	return cr, len(b)
}

// scanMultibyte walks b one character at a time, trying each length the
// encoding allows and taking the first that decodes to a single rune.
func (e *Encoding) scanMultibyte(b []byte) (CodeRange, int) {
	dec := e.codec.NewDecoder()
	var dst [4 * utf8.UTFMax]byte

	cr := CodeRangeValid
	chars := 0
	for pos := 0; pos < len(b); {
		size := 0
		for n := e.minLength; n <= e.maxLength && pos+n <= len(b); n++ {
			if decodesToOneRune(dec, dst[:], b[pos:pos+n]) {
				size = n
				break
			}
		}
		if size == 0 {
			cr = CodeRangeBroken
			size = 1
		}
		pos += size
		chars++
	}
	return cr, chars
}

func decodesToOneRune(t transform.Transformer, dst, src []byte) bool {
	t.Reset()
	nDst, nSrc, err := t.Transform(dst, src, true)
	if err != nil || nSrc != len(src) || nDst == 0 {
		return false
	}
	r, size := utf8.DecodeRune(dst[:nDst])
	return r != utf8.RuneError && size == nDst
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Decode converts b to UTF-8. Invalid sequences become U+FFFD.
func (e *Encoding) Decode(b []byte) string {
	switch e.kind {
	case kindUTF8, kindASCII, kindBinary:
		return string(b)
	case kindCharmap:
		out, _ := e.charmap.NewDecoder().Bytes(b)
		return string(out)
	default:
		out, _ := e.codec.NewDecoder().Bytes(b)
		return string(out)
	}
}
