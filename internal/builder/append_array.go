package builder

import (
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/storage"
)

// appendArrayOp appends every element of another array in one step.
// Like appendOneOp it re-reads the state's actual strategy on every call.
type appendArrayOp struct {
	strategy storage.Strategy
}

func newAppendArrayOp(strategy storage.Strategy) *appendArrayOp {
	return &appendArrayOp{strategy: strategy}
}

func (op *appendArrayOp) append(b *ArrayBuilder, state *State, index int, other storage.Array) error {
	state.checkIndex("append array", index)

	actual := storage.AllocatorOf(state.store)
	if actual != op.strategy {
		b.metrics.recordStaleOp()
	}
	if actual.AcceptsAllValues(state.store, other.Store) {
		return op.appendCompatible(b, state, actual, index, other)
	}
	if other.Size == 0 {
		return nil
	}
	return op.appendGeneralized(b, state, index, other)
}

func (op *appendArrayOp) appendCompatible(b *ArrayBuilder, state *State, actual storage.Strategy, index int, other storage.Array) error {
	needed := index + other.Size
	if length := actual.Capacity(state.store); needed > length {
		capacity, err := b.policy().GrowTo(length, needed)
		if err != nil {
			return err
		}
		state.store = actual.Expand(state.store, capacity)
		state.capacity = capacity
		b.metrics.recordExpansion()
		b.updateStrategy(actual, capacity)
	}

	if other.Size > 0 {
		storage.AllocatorOf(other.Store).CopyContents(other.Store, 0, state.store, index, other.Size)
	}
	state.nextIndex += other.Size
	b.metrics.recordAppend(true)
	return nil
}

func (op *appendArrayOp) appendGeneralized(b *ArrayBuilder, state *State, index int, other storage.Array) error {
	needed := index + other.Size
	neededCapacity := state.capacity
	if needed > state.capacity {
		var err error
		if neededCapacity, err = b.policy().GrowTo(state.capacity, needed); err != nil {
			return err
		}
	}

	generalized := b.registry.GeneralizeForStore(state.store, other.Store)
	if b.logger.Enabled(logging.LevelDebug) {
		b.logger.Debug("%s store rejects %s array of %d, generalizing to %s",
			storage.AllocatorOf(state.store).Name(), other.Strategy().Name(), other.Size, generalized.Name())
	}
	authoritative := b.updateStrategy(generalized, neededCapacity)

	store := authoritative.Allocate(neededCapacity)
	storage.AllocatorOf(state.store).CopyContents(state.store, 0, store, 0, index)
	storage.AllocatorOf(other.Store).CopyContents(other.Store, 0, store, index, other.Size)

	state.store = store
	state.capacity = neededCapacity
	state.nextIndex += other.Size
	b.metrics.recordAppend(false)
	return nil
}
