package rope

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/dshills/rtcore/internal/encoding"
	"github.com/dshills/rtcore/internal/native"
)

// NativeRope is a mutable byte string in a native buffer.
//
// The buffer always holds at least ByteLength()+1 bytes and the byte at
// ByteLength() is NUL. Several ropes may share one buffer (see
// WithByteLength); each holds a reference that is released when the rope
// becomes unreachable, and the buffer is freed after the last one.
//
// Get, Set and Bytes are not synchronized against each other. Accessors
// keep the rope alive until the buffer access completes.
type NativeRope struct {
	alloc      *Allocator
	ptr        *native.Pointer
	byteLength int
	enc        *encoding.Encoding

	characterLength atomic.Int64
	codeRange       atomic.Int32
	scans           atomic.Int64
}

func newNativeRope(a *Allocator, ptr *native.Pointer, byteLength int, enc *encoding.Encoding, characterLength int, cr encoding.CodeRange) *NativeRope {
	r := &NativeRope{alloc: a, ptr: ptr, byteLength: byteLength, enc: enc}
	r.characterLength.Store(int64(characterLength))
	r.codeRange.Store(int32(cr))
	a.autorelease(r, ptr)
	return r
}

// NewNative copies b into a fresh native buffer.
func NewNative(a *Allocator, b []byte, enc *encoding.Encoding, characterLength int, cr encoding.CodeRange) (*NativeRope, error) {
	ptr, err := a.provider.Malloc(len(b) + 1)
	if err != nil {
		return nil, err
	}
	ptr.WriteBytes(0, b)
	ptr.WriteByteAt(len(b), 0)
	return newNativeRope(a, ptr, len(b), enc, characterLength, cr), nil
}

// NewBuffer returns a zeroed ASCII-8BIT rope with room for capacity bytes,
// of which the first length are in use.
func NewBuffer(a *Allocator, capacity, length int) (*NativeRope, error) {
	if length < 0 || length > capacity {
		panic(fmt.Sprintf("rope: buffer length %d outside capacity %d", length, capacity))
	}
	ptr, err := a.provider.Calloc(capacity + 1)
	if err != nil {
		return nil, err
	}
	return newNativeRope(a, ptr, length, encoding.ASCII8BIT, length, encoding.CodeRangeUnknown), nil
}

// WithByteLength returns a rope over the same buffer with a new length,
// writing a NUL at newLength. newLength must not exceed Capacity.
func (r *NativeRope) WithByteLength(newLength, characterLength int, cr encoding.CodeRange) *NativeRope {
	if newLength < 0 || newLength > r.Capacity() {
		panic(fmt.Sprintf("rope: byte length %d outside capacity %d", newLength, r.Capacity()))
	}
	r.ptr.WriteByteAt(newLength, 0)
	r.ptr.Retain()
	return newNativeRope(r.alloc, r.ptr, newLength, r.enc, characterLength, cr)
}

// MakeCopy returns a rope over a fresh buffer of the same size.
func (r *NativeRope) MakeCopy() (*NativeRope, error) {
	ptr, err := r.alloc.provider.Malloc(r.ptr.Size())
	if err != nil {
		return nil, err
	}
	ptr.WriteFrom(0, r.ptr, 0, r.ptr.Size())
	cr := r.CodeRange()
	return newNativeRope(r.alloc, ptr, r.byteLength, r.enc, r.CharacterLength(), cr), nil
}

// Grow returns a rope over a fresh buffer with capacity newLength holding
// the current bytes. Length, encoding and code range carry over.
func (r *NativeRope) Grow(newLength int) (*NativeRope, error) {
	if newLength <= r.byteLength {
		panic(fmt.Sprintf("rope: grow to %d from %d", newLength, r.byteLength))
	}
	ptr, err := r.alloc.provider.Calloc(newLength + 1)
	if err != nil {
		return nil, err
	}
	ptr.WriteFrom(0, r.ptr, 0, r.byteLength)
	return newNativeRope(r.alloc, ptr, r.byteLength, r.enc,
		int(r.characterLength.Load()), r.RawCodeRange()), nil
}

// Capacity returns the number of content bytes the buffer can hold.
func (r *NativeRope) Capacity() int {
	return r.ptr.Size() - 1
}

// ByteLength returns the content length in bytes.
func (r *NativeRope) ByteLength() int {
	return r.byteLength
}

// Encoding returns the encoding.
func (r *NativeRope) Encoding() *encoding.Encoding {
	return r.enc
}

// Bytes re-reads the content from the buffer.
func (r *NativeRope) Bytes() []byte {
	b := r.ptr.ReadBytes(0, r.byteLength)
	runtime.KeepAlive(r)
	return b
}

// BytesRange re-reads n bytes starting at off.
func (r *NativeRope) BytesRange(off, n int) []byte {
	r.checkRange(off, n)
	b := r.ptr.ReadBytes(off, n)
	runtime.KeepAlive(r)
	return b
}

// CopyTo copies len(dst) bytes starting at off into dst.
func (r *NativeRope) CopyTo(off int, dst []byte) {
	r.checkRange(off, len(dst))
	r.ptr.ReadInto(off, dst)
	runtime.KeepAlive(r)
}

// Get returns the byte at index i.
func (r *NativeRope) Get(i int) byte {
	r.checkIndex(i)
	b := r.ptr.ReadByteAt(i)
	runtime.KeepAlive(r)
	return b
}

// Set stores v at index i. A 7-bit rope stays 7-bit only while v < 128;
// any other write makes the code range unknown.
func (r *NativeRope) Set(i int, v int) {
	r.checkIndex(i)
	if v < 0 || v > 0xFF {
		panic(fmt.Sprintf("rope: byte value %d out of range", v))
	}

	next := encoding.CodeRangeUnknown
	if r.RawCodeRange() == encoding.CodeRange7Bit && v < 0x80 {
		next = encoding.CodeRange7Bit
	}
	r.codeRange.Store(int32(next))
	r.ptr.WriteByteAt(i, byte(v))
	runtime.KeepAlive(r)
}

// RawCodeRange returns the cached code range without computing it.
func (r *NativeRope) RawCodeRange() encoding.CodeRange {
	return encoding.CodeRange(r.codeRange.Load())
}

// CodeRange returns the code range, scanning the buffer if it is unknown.
func (r *NativeRope) CodeRange() encoding.CodeRange {
	if cr := r.RawCodeRange(); cr != encoding.CodeRangeUnknown {
		return cr
	}

	r.scans.Add(1)
	cr, chars := r.enc.Scan(r.Bytes())
	if r.codeRange.CompareAndSwap(int32(encoding.CodeRangeUnknown), int32(cr)) {
		r.characterLength.Store(int64(chars))
	}
	return cr
}

// SetCodeRange stores a code range the caller has already validated.
func (r *NativeRope) SetCodeRange(cr encoding.CodeRange) {
	r.codeRange.Store(int32(cr))
}

// CharacterLength returns the number of characters. It is recomputed
// together with an unknown code range.
func (r *NativeRope) CharacterLength() int {
	r.CodeRange()
	return int(r.characterLength.Load())
}

// WithEncoding copies the content into a heap rope with a new encoding.
func (r *NativeRope) WithEncoding(enc *encoding.Encoding, cr encoding.CodeRange) Rope {
	return NewLeaf(r.Bytes(), enc, cr)
}

// ToLeaf copies the content into a heap rope with the same encoding.
func (r *NativeRope) ToLeaf() *LeafRope {
	return NewLeaf(r.Bytes(), r.enc, encoding.CodeRangeUnknown)
}

// Hash hashes the current content. The result changes when the rope is
// mutated, so it must not be cached across Set calls.
func (r *NativeRope) Hash() uint64 {
	return HashBytes(r.Bytes(), hashStart)
}

// Pointer returns the native buffer. The buffer is only guaranteed to stay
// allocated while r is reachable; use runtime.KeepAlive(r) after raw access.
func (r *NativeRope) Pointer() *native.Pointer {
	return r.ptr
}

func (r *NativeRope) String() string {
	return r.ToLeaf().String()
}

func (r *NativeRope) checkIndex(i int) {
	if i < 0 || i >= r.byteLength {
		panic(fmt.Sprintf("rope: index %d out of range [0, %d)", i, r.byteLength))
	}
}

func (r *NativeRope) checkRange(off, n int) {
	if off < 0 || n < 0 || off+n > r.byteLength {
		panic(fmt.Sprintf("rope: range [%d, %d) out of range [0, %d)", off, off+n, r.byteLength))
	}
}
