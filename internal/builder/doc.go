// Package builder constructs arrays incrementally while speculating on the
// most compact storage strategy for the elements seen.
//
// An ArrayBuilder belongs to one call site and persists across builds. Each
// build goes through Start (or StartWithLength), a sequence of AppendOne and
// AppendArray calls, and Finish:
//
//	b := builder.New("map")
//	state := b.Start()
//	for i, v := range values {
//		if err := b.AppendOne(state, i, v); err != nil {
//			return err
//		}
//	}
//	arr := b.Finish(state, len(values))
//
// When an element does not fit the current store, the store is generalized
// (int32 to int64 to object, or float64 to object) and the builder records
// the wider strategy so later builds start there. The expected length is
// learned the same way. Both only ever grow.
//
// A State is owned by the goroutine that started it. The builder itself is
// safe for concurrent and reentrant use.
//
// Appending at the wrong index, finishing with the wrong length, or reusing
// a finished State panics. Running past the policy's MaxLength returns an
// error wrapping ErrOutOfCapacity.
package builder
