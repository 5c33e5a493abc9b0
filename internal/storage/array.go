package storage

import "fmt"

// Array is a store paired with the number of elements in use.
// It is what a finished build hands back, and what AppendArray consumes.
type Array struct {
	Store Store
	Size  int
}

// EmptyArray returns a zero-length array backed by the Empty strategy.
func EmptyArray() Array {
	return Array{Store: EmptyStore{}}
}

// Len returns the number of elements.
func (a Array) Len() int {
	return a.Size
}

// Strategy returns the strategy of the backing store.
func (a Array) Strategy() Strategy {
	if a.Store == nil {
		return Empty
	}
	return a.Store.Strategy()
}

// At returns the element at index i.
func (a Array) At(i int) any {
	if i < 0 || i >= a.Size {
		panic(fmt.Sprintf("storage: index %d out of range [0, %d)", i, a.Size))
	}
	return a.Store.Strategy().Read(a.Store, i)
}

// Values returns the elements as a fresh slice.
func (a Array) Values() []any {
	out := make([]any, a.Size)
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

// String formats the array for debugging.
func (a Array) String() string {
	return fmt.Sprintf("%s%v", a.Strategy().Name(), a.Values())
}
