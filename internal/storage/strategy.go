// Package storage provides the backing representations ("strategies") an
// array may use, and the generalization lattice between them.
//
// A store is a concrete backing value (a typed slice) and always knows its
// own strategy, so AllocatorOf is a single method call. Strategies are
// compared by identity; each built-in strategy is a package-level singleton.
package storage

// Store is a backing value for a sequence.
type Store interface {
	// Strategy returns the strategy that allocated this store.
	Strategy() Strategy
}

// Strategy describes one backing representation.
//
// Write and CopyContents have the precondition that the destination accepts
// every value written; violating it panics.
type Strategy interface {
	// Name returns a short identifier such as "int32" or "object".
	Name() string

	// Allocate returns a zeroed store with room for capacity elements.
	Allocate(capacity int) Store

	// Capacity returns the number of element slots in s.
	Capacity(s Store) int

	// Read returns the element at index i.
	Read(s Store, i int) any

	// Write stores v at index i.
	Write(s Store, i int, v any)

	// AcceptsValue reports whether v can be written into s without
	// generalizing.
	AcceptsValue(s Store, v any) bool

	// AcceptsAllValues reports whether every element representable by other
	// can be written into s.
	AcceptsAllValues(s Store, other Store) bool

	// Expand returns a store of the same strategy with newCapacity slots and
	// the contents of s. It may return s itself when it is large enough.
	Expand(s Store, newCapacity int) Store

	// CopyContents copies n elements of src starting at srcOff into dst
	// starting at dstOff. src must belong to this strategy.
	CopyContents(src Store, srcOff int, dst Store, dstOff int, n int)
}

// AllocatorOf returns the strategy that owns s.
func AllocatorOf(s Store) Strategy {
	return s.Strategy()
}

// copyGeneric copies element by element through the destination strategy.
// Used when source and destination representations differ.
func copyGeneric(from Strategy, src Store, srcOff int, dst Store, dstOff int, n int) {
	to := dst.Strategy()
	for i := 0; i < n; i++ {
		to.Write(dst, dstOff+i, from.Read(src, srcOff+i))
	}
}

// expandSlice grows a slice-backed store, reusing it when it already fits.
func expandSlice[T any](s []T, newCapacity int) []T {
	if newCapacity <= len(s) {
		return s
	}
	grown := make([]T, newCapacity)
	copy(grown, s)
	return grown
}
