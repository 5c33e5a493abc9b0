// Package inspect renders runtime values and byte strings for log lines.
//
// Output is truncated to a display width measured in terminal columns, so
// wide CJK text and emoji are cut at grapheme cluster boundaries rather than
// in the middle of a character.
package inspect

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// DefaultWidth is the width used when a caller passes zero.
const DefaultWidth = 60

const ellipsis = "..."

// Value renders v, truncated to width columns.
func Value(v any, width int) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return Truncate(strconv.Quote(val), width)
	case []byte:
		return Bytes(val, width)
	case fmt.Stringer:
		return Truncate(val.String(), width)
	default:
		return Truncate(fmt.Sprintf("%T(%v)", v, v), width)
	}
}

// Bytes renders b as a double-quoted string. Valid printable UTF-8 is kept,
// everything else is escaped as \xNN.
func Bytes(b []byte, width int) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size <= 1:
			fmt.Fprintf(&sb, `\x%02X`, b[0])
		case r == '"' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case strconv.IsPrint(r):
			sb.Write(b[:size])
		default:
			for _, c := range b[:size] {
				fmt.Fprintf(&sb, `\x%02X`, c)
			}
		}
		b = b[size:]
	}
	sb.WriteByte('"')
	return Truncate(sb.String(), width)
}

// Truncate shortens s to at most width display columns, appending an
// ellipsis when anything was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	limit := width - len(ellipsis)
	if limit < 0 {
		limit = 0
	}

	var sb strings.Builder
	used := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > limit {
			break
		}
		sb.WriteString(cluster)
		used += w
	}
	sb.WriteString(ellipsis)
	return sb.String()
}
