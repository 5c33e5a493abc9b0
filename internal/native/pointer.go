// Package native manages byte buffers that live outside the Go heap and can
// be handed to C-level callers by address.
//
// A Pointer owns a region obtained from a Provider. Regions are reference
// counted: Retain adds an owner, Release drops one, and the region is freed
// exactly once when the last owner releases it. Views created with Add share
// the region but never free it.
package native

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// region is one allocation shared by a pointer and its views.
type region struct {
	id    uuid.UUID
	mem   []byte
	size  int
	free  func(mem []byte) error
	refs  atomic.Int64
	freed atomic.Bool
	stats *counters
}

// Pointer is a handle on a native byte region.
type Pointer struct {
	r    *region
	off  int
	size int
	view bool
}

func newPointer(mem []byte, size int, free func([]byte) error, stats *counters) *Pointer {
	r := &region{id: uuid.New(), mem: mem, size: size, free: free, stats: stats}
	r.refs.Store(1)
	stats.allocated.Add(1)
	stats.liveBytes.Add(int64(size))
	return &Pointer{r: r, size: size}
}

// ID returns the id of the underlying region. Views share their parent's id.
func (p *Pointer) ID() uuid.UUID {
	return p.r.id
}

// Size returns the number of addressable bytes.
func (p *Pointer) Size() int {
	return p.size
}

// IsView reports whether p was created by Add.
func (p *Pointer) IsView() bool {
	return p.view
}

// Freed reports whether the region has been released.
func (p *Pointer) Freed() bool {
	return p.r.freed.Load()
}

// Address returns the address of the first byte, or 0 for an empty pointer.
// The address stays valid until the region is freed.
func (p *Pointer) Address() uintptr {
	p.checkLive()
	if p.size == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p.r.mem[p.off]))
}

// Add returns a non-owning view starting offset bytes into p.
func (p *Pointer) Add(offset int) *Pointer {
	p.checkLive()
	if offset < 0 || offset > p.size {
		panic(fmt.Sprintf("native: offset %d out of range [0, %d]", offset, p.size))
	}
	return &Pointer{r: p.r, off: p.off + offset, size: p.size - offset, view: true}
}

// ReadByteAt returns the byte at index i.
func (p *Pointer) ReadByteAt(i int) byte {
	p.checkRange(i, 1)
	return p.r.mem[p.off+i]
}

// WriteByteAt stores b at index i.
func (p *Pointer) WriteByteAt(i int, b byte) {
	p.checkRange(i, 1)
	p.r.mem[p.off+i] = b
}

// ReadBytes returns a fresh copy of n bytes starting at off.
func (p *Pointer) ReadBytes(off, n int) []byte {
	out := make([]byte, n)
	p.ReadInto(off, out)
	return out
}

// ReadInto copies len(dst) bytes starting at off into dst.
func (p *Pointer) ReadInto(off int, dst []byte) {
	p.checkRange(off, len(dst))
	copy(dst, p.r.mem[p.off+off:])
}

// WriteBytes copies src into p starting at off.
func (p *Pointer) WriteBytes(off int, src []byte) {
	p.checkRange(off, len(src))
	copy(p.r.mem[p.off+off:], src)
}

// WriteFrom copies n bytes of src starting at srcOff into p at off.
func (p *Pointer) WriteFrom(off int, src *Pointer, srcOff, n int) {
	src.checkRange(srcOff, n)
	p.checkRange(off, n)
	copy(p.r.mem[p.off+off:p.off+off+n], src.r.mem[src.off+srcOff:])
}

// Retain adds an owner to the region. Views cannot own.
func (p *Pointer) Retain() {
	p.checkLive()
	if p.view {
		panic("native: retain through a view")
	}
	p.r.refs.Add(1)
}

// Release drops an owner. The last release frees the region.
func (p *Pointer) Release() error {
	if p.view {
		return ErrNotOwner
	}
	n := p.r.refs.Add(-1)
	switch {
	case n > 0:
		return nil
	case n < 0:
		return fmt.Errorf("%w: %s", ErrAlreadyFreed, p.r.id)
	}
	return p.r.release()
}

// Free releases the region regardless of outstanding references.
// Views cannot free; a second Free returns ErrAlreadyFreed.
func (p *Pointer) Free() error {
	if p.view {
		return ErrNotOwner
	}
	p.r.refs.Store(0)
	return p.r.release()
}

// Refs returns the current number of owners.
func (p *Pointer) Refs() int64 {
	return p.r.refs.Load()
}

func (r *region) release() error {
	if !r.freed.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrAlreadyFreed, r.id)
	}
	r.stats.freed.Add(1)
	r.stats.liveBytes.Add(-int64(r.size))

	mem := r.mem
	r.mem = nil
	if r.free == nil {
		return nil
	}
	return r.free(mem)
}

func (p *Pointer) checkLive() {
	if p.r.freed.Load() {
		panic(fmt.Sprintf("native: use of freed pointer %s", p.r.id))
	}
}

func (p *Pointer) checkRange(off, n int) {
	p.checkLive()
	if off < 0 || n < 0 || off+n > p.size {
		panic(fmt.Sprintf("native: access [%d, %d) out of range [0, %d)", off, off+n, p.size))
	}
}

func (p *Pointer) String() string {
	kind := "pointer"
	if p.view {
		kind = "view"
	}
	return fmt.Sprintf("native.%s(%s+%d, %d bytes)", kind, p.r.id, p.off, p.size)
}
