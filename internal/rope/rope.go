// Package rope provides byte strings tagged with an encoding.
//
// LeafRope is an immutable heap string. NativeRope keeps its bytes in a
// native buffer with a trailing NUL so the buffer can be handed to C-level
// callers, and may be mutated in place.
package rope

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/dshills/rtcore/internal/encoding"
)

// Rope is a string value.
type Rope interface {
	// Bytes returns a fresh copy of the content.
	Bytes() []byte
	ByteLength() int
	CharacterLength() int
	Encoding() *encoding.Encoding
	CodeRange() encoding.CodeRange
	// Get returns the byte at index i.
	Get(i int) byte
	// Hash returns a hash of the current content.
	Hash() uint64
}

// hashStart is mixed into every rope hash.
const hashStart = 1

// HashBytes hashes b mixed with start.
func HashBytes(b []byte, start uint64) uint64 {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], start)

	d := xxhash.New()
	_, _ = d.Write(seed[:])
	_, _ = d.Write(b)
	return d.Sum64()
}

// LeafRope is an immutable heap-backed rope.
type LeafRope struct {
	bytes           []byte
	enc             *encoding.Encoding
	characterLength int
	codeRange       encoding.CodeRange
}

// NewLeaf copies b into a new LeafRope. An unknown code range is computed
// immediately.
func NewLeaf(b []byte, enc *encoding.Encoding, cr encoding.CodeRange) *LeafRope {
	owned := make([]byte, len(b))
	copy(owned, b)

	scanned, chars := enc.Scan(owned)
	if cr == encoding.CodeRangeUnknown {
		cr = scanned
	}
	return &LeafRope{bytes: owned, enc: enc, characterLength: chars, codeRange: cr}
}

// NewLeafString is NewLeaf for a Go string, tagged UTF-8.
func NewLeafString(s string) *LeafRope {
	return NewLeaf([]byte(s), encoding.UTF8, encoding.CodeRangeUnknown)
}

func (l *LeafRope) Bytes() []byte {
	out := make([]byte, len(l.bytes))
	copy(out, l.bytes)
	return out
}

func (l *LeafRope) ByteLength() int               { return len(l.bytes) }
func (l *LeafRope) CharacterLength() int          { return l.characterLength }
func (l *LeafRope) Encoding() *encoding.Encoding  { return l.enc }
func (l *LeafRope) CodeRange() encoding.CodeRange { return l.codeRange }
func (l *LeafRope) Hash() uint64                  { return HashBytes(l.bytes, hashStart) }

func (l *LeafRope) Get(i int) byte {
	if i < 0 || i >= len(l.bytes) {
		panic(fmt.Sprintf("rope: index %d out of range [0, %d)", i, len(l.bytes)))
	}
	return l.bytes[i]
}

// String decodes the content to a Go string.
func (l *LeafRope) String() string {
	return l.enc.Decode(l.bytes)
}

// Equal reports whether two ropes have the same bytes and encoding.
func Equal(a, b Rope) bool {
	if a.Encoding() != b.Encoding() || a.ByteLength() != b.ByteLength() {
		return false
	}
	return string(a.Bytes()) == string(b.Bytes())
}
