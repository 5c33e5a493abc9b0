package storage

import (
	"fmt"
	"math"
)

// Built-in strategies.
var (
	// Empty is the INITIAL strategy: it accepts no element and always
	// allocates a zero-length store.
	Empty Strategy = emptyStrategy{}

	// Int32 stores integers that fit in 32 bits.
	Int32 Strategy = int32Strategy{}

	// Int64 stores any Go int.
	Int64 Strategy = int64Strategy{}

	// Float64 stores float64 values.
	Float64 Strategy = float64Strategy{}

	// Object stores any value.
	Object Strategy = objectStrategy{}
)

// EmptyStore is the sentinel store of the Empty strategy.
type EmptyStore struct{}

// Strategy implements Store.
func (EmptyStore) Strategy() Strategy { return Empty }

// Int32Store backs the Int32 strategy.
type Int32Store []int32

// Strategy implements Store.
func (Int32Store) Strategy() Strategy { return Int32 }

// Int64Store backs the Int64 strategy.
type Int64Store []int64

// Strategy implements Store.
func (Int64Store) Strategy() Strategy { return Int64 }

// Float64Store backs the Float64 strategy.
type Float64Store []float64

// Strategy implements Store.
func (Float64Store) Strategy() Strategy { return Float64 }

// ObjectStore backs the Object strategy.
type ObjectStore []any

// Strategy implements Store.
func (ObjectStore) Strategy() Strategy { return Object }

func fitsInt32(v int) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// empty

type emptyStrategy struct{}

func (emptyStrategy) Name() string                 { return "empty" }
func (emptyStrategy) Allocate(int) Store           { return EmptyStore{} }
func (emptyStrategy) Capacity(Store) int           { return 0 }
func (emptyStrategy) AcceptsValue(Store, any) bool { return false }
func (emptyStrategy) Expand(s Store, _ int) Store  { return s }
func (emptyStrategy) Read(_ Store, i int) any      { panic(fmt.Sprintf("storage: read %d from empty store", i)) }
func (emptyStrategy) Write(_ Store, i int, _ any)  { panic(fmt.Sprintf("storage: write %d to empty store", i)) }
func (emptyStrategy) AcceptsAllValues(_ Store, other Store) bool {
	_, ok := other.(EmptyStore)
	return ok
}

func (emptyStrategy) CopyContents(_ Store, _ int, _ Store, _ int, n int) {
	if n != 0 {
		panic(fmt.Sprintf("storage: copy %d elements from empty store", n))
	}
}

// int32

type int32Strategy struct{}

func (int32Strategy) Name() string { return "int32" }

func (int32Strategy) Allocate(capacity int) Store { return make(Int32Store, capacity) }

func (int32Strategy) Capacity(s Store) int { return len(s.(Int32Store)) }

func (int32Strategy) Read(s Store, i int) any { return int(s.(Int32Store)[i]) }

func (int32Strategy) Write(s Store, i int, v any) {
	n, ok := v.(int)
	if !ok || !fitsInt32(n) {
		panic(fmt.Sprintf("storage: int32 store cannot hold %T(%v)", v, v))
	}
	s.(Int32Store)[i] = int32(n)
}

func (int32Strategy) AcceptsValue(_ Store, v any) bool {
	n, ok := v.(int)
	return ok && fitsInt32(n)
}

func (int32Strategy) AcceptsAllValues(_ Store, other Store) bool {
	switch other.(type) {
	case Int32Store, EmptyStore:
		return true
	}
	return false
}

func (int32Strategy) Expand(s Store, newCapacity int) Store {
	return Int32Store(expandSlice(s.(Int32Store), newCapacity))
}

func (st int32Strategy) CopyContents(src Store, srcOff int, dst Store, dstOff int, n int) {
	from := src.(Int32Store)
	switch to := dst.(type) {
	case Int32Store:
		copy(to[dstOff:dstOff+n], from[srcOff:srcOff+n])
	case Int64Store:
		for i := 0; i < n; i++ {
			to[dstOff+i] = int64(from[srcOff+i])
		}
	default:
		copyGeneric(st, src, srcOff, dst, dstOff, n)
	}
}

// int64

type int64Strategy struct{}

func (int64Strategy) Name() string { return "int64" }

func (int64Strategy) Allocate(capacity int) Store { return make(Int64Store, capacity) }

func (int64Strategy) Capacity(s Store) int { return len(s.(Int64Store)) }

func (int64Strategy) Read(s Store, i int) any { return int(s.(Int64Store)[i]) }

func (int64Strategy) Write(s Store, i int, v any) {
	n, ok := v.(int)
	if !ok {
		panic(fmt.Sprintf("storage: int64 store cannot hold %T(%v)", v, v))
	}
	s.(Int64Store)[i] = int64(n)
}

func (int64Strategy) AcceptsValue(_ Store, v any) bool {
	_, ok := v.(int)
	return ok
}

func (int64Strategy) AcceptsAllValues(_ Store, other Store) bool {
	switch other.(type) {
	case Int64Store, Int32Store, EmptyStore:
		return true
	}
	return false
}

func (int64Strategy) Expand(s Store, newCapacity int) Store {
	return Int64Store(expandSlice(s.(Int64Store), newCapacity))
}

func (st int64Strategy) CopyContents(src Store, srcOff int, dst Store, dstOff int, n int) {
	from := src.(Int64Store)
	if to, ok := dst.(Int64Store); ok {
		copy(to[dstOff:dstOff+n], from[srcOff:srcOff+n])
		return
	}
	copyGeneric(st, src, srcOff, dst, dstOff, n)
}

// float64

type float64Strategy struct{}

func (float64Strategy) Name() string { return "float64" }

func (float64Strategy) Allocate(capacity int) Store { return make(Float64Store, capacity) }

func (float64Strategy) Capacity(s Store) int { return len(s.(Float64Store)) }

func (float64Strategy) Read(s Store, i int) any { return s.(Float64Store)[i] }

func (float64Strategy) Write(s Store, i int, v any) {
	f, ok := v.(float64)
	if !ok {
		panic(fmt.Sprintf("storage: float64 store cannot hold %T(%v)", v, v))
	}
	s.(Float64Store)[i] = f
}

func (float64Strategy) AcceptsValue(_ Store, v any) bool {
	_, ok := v.(float64)
	return ok
}

func (float64Strategy) AcceptsAllValues(_ Store, other Store) bool {
	switch other.(type) {
	case Float64Store, EmptyStore:
		return true
	}
	return false
}

func (float64Strategy) Expand(s Store, newCapacity int) Store {
	return Float64Store(expandSlice(s.(Float64Store), newCapacity))
}

func (st float64Strategy) CopyContents(src Store, srcOff int, dst Store, dstOff int, n int) {
	from := src.(Float64Store)
	if to, ok := dst.(Float64Store); ok {
		copy(to[dstOff:dstOff+n], from[srcOff:srcOff+n])
		return
	}
	copyGeneric(st, src, srcOff, dst, dstOff, n)
}

// object

type objectStrategy struct{}

func (objectStrategy) Name() string { return "object" }

func (objectStrategy) Allocate(capacity int) Store { return make(ObjectStore, capacity) }

func (objectStrategy) Capacity(s Store) int { return len(s.(ObjectStore)) }

func (objectStrategy) Read(s Store, i int) any { return s.(ObjectStore)[i] }

func (objectStrategy) Write(s Store, i int, v any) { s.(ObjectStore)[i] = v }

func (objectStrategy) AcceptsValue(Store, any) bool { return true }

func (objectStrategy) AcceptsAllValues(Store, Store) bool { return true }

func (objectStrategy) Expand(s Store, newCapacity int) Store {
	return ObjectStore(expandSlice(s.(ObjectStore), newCapacity))
}

func (st objectStrategy) CopyContents(src Store, srcOff int, dst Store, dstOff int, n int) {
	from := src.(ObjectStore)
	if to, ok := dst.(ObjectStore); ok {
		copy(to[dstOff:dstOff+n], from[srcOff:srcOff+n])
		return
	}
	copyGeneric(st, src, srcOff, dst, dstOff, n)
}
