// Package encoding describes the character encodings a rope may carry and
// classifies byte sequences against them.
package encoding

import (
	"fmt"
	"strings"

	textenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

type kind int

const (
	kindBinary kind = iota
	kindASCII
	kindUTF8
	kindCharmap
	kindMultibyte
)

// Encoding is a named character encoding.
type Encoding struct {
	name            string
	kind            kind
	asciiCompatible bool
	minLength       int
	maxLength       int
	charmap         *charmap.Charmap
	codec           textenc.Encoding
}

// Built-in encodings.
var (
	ASCII8BIT   = &Encoding{name: "ASCII-8BIT", kind: kindBinary, asciiCompatible: true, minLength: 1, maxLength: 1}
	USASCII     = &Encoding{name: "US-ASCII", kind: kindASCII, asciiCompatible: true, minLength: 1, maxLength: 1}
	UTF8        = &Encoding{name: "UTF-8", kind: kindUTF8, asciiCompatible: true, minLength: 1, maxLength: 4}
	ISO8859_1   = &Encoding{name: "ISO-8859-1", kind: kindCharmap, asciiCompatible: true, minLength: 1, maxLength: 1, charmap: charmap.ISO8859_1}
	Windows1252 = &Encoding{name: "Windows-1252", kind: kindCharmap, asciiCompatible: true, minLength: 1, maxLength: 1, charmap: charmap.Windows1252}
	ShiftJIS    = &Encoding{name: "Shift_JIS", kind: kindMultibyte, asciiCompatible: true, minLength: 1, maxLength: 2, codec: japanese.ShiftJIS}
	EUCJP       = &Encoding{name: "EUC-JP", kind: kindMultibyte, asciiCompatible: true, minLength: 1, maxLength: 3, codec: japanese.EUCJP}
	GBK         = &Encoding{name: "GBK", kind: kindMultibyte, asciiCompatible: true, minLength: 1, maxLength: 2, codec: simplifiedchinese.GBK}
	Big5        = &Encoding{name: "Big5", kind: kindMultibyte, asciiCompatible: true, minLength: 1, maxLength: 2, codec: traditionalchinese.Big5}
	EUCKR       = &Encoding{name: "EUC-KR", kind: kindMultibyte, asciiCompatible: true, minLength: 1, maxLength: 2, codec: korean.EUCKR}
	UTF16LE     = &Encoding{name: "UTF-16LE", kind: kindMultibyte, minLength: 2, maxLength: 4, codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	UTF16BE     = &Encoding{name: "UTF-16BE", kind: kindMultibyte, minLength: 2, maxLength: 4, codec: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
)

// Binary is an alias for ASCII8BIT.
var Binary = ASCII8BIT

var byName = map[string]*Encoding{}

func init() {
	for _, e := range All() {
		byName[strings.ToUpper(e.name)] = e
	}
	aliases := map[string]*Encoding{
		"BINARY":  ASCII8BIT,
		"ASCII":   USASCII,
		"UTF8":    UTF8,
		"LATIN1":  ISO8859_1,
		"CP1252":  Windows1252,
		"SJIS":    ShiftJIS,
		"EUCJP":   EUCJP,
		"CP936":   GBK,
		"BIG5":    Big5,
		"EUCKR":   EUCKR,
		"UTF16LE": UTF16LE,
		"UTF16BE": UTF16BE,
	}
	for alias, e := range aliases {
		byName[alias] = e
	}
}

// All returns the built-in encodings.
func All() []*Encoding {
	return []*Encoding{
		ASCII8BIT, USASCII, UTF8, ISO8859_1, Windows1252,
		ShiftJIS, EUCJP, GBK, Big5, EUCKR, UTF16LE, UTF16BE,
	}
}

// Lookup finds an encoding by name or alias, ignoring case.
func Lookup(name string) (*Encoding, bool) {
	e, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return e, ok
}

// MustLookup is like Lookup but panics on an unknown name.
func MustLookup(name string) *Encoding {
	e, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("encoding: unknown encoding %q", name))
	}
	return e
}

// Name returns the canonical name.
func (e *Encoding) Name() string { return e.name }

// String implements fmt.Stringer.
func (e *Encoding) String() string { return e.name }

// ASCIICompatible reports whether bytes below 0x80 always denote ASCII.
func (e *Encoding) ASCIICompatible() bool { return e.asciiCompatible }

// MinLength returns the shortest character length in bytes.
func (e *Encoding) MinLength() int { return e.minLength }

// MaxLength returns the longest character length in bytes.
func (e *Encoding) MaxLength() int { return e.maxLength }

// IsUnicode reports whether the encoding is a Unicode transformation format.
func (e *Encoding) IsUnicode() bool {
	return e == UTF8 || e == UTF16LE || e == UTF16BE
}
