package builder

import (
	"github.com/dshills/rtcore/internal/inspect"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/storage"
)

// appendOneOp appends single elements. It is specialized for the strategy
// the builder assumed when the op was created, but never trusts that the
// state's store still has that strategy: another goroutine or a reentrant
// build may have widened the builder in between.
type appendOneOp struct {
	strategy storage.Strategy
}

func newAppendOneOp(strategy storage.Strategy) *appendOneOp {
	return &appendOneOp{strategy: strategy}
}

func (op *appendOneOp) append(b *ArrayBuilder, state *State, index int, value any) error {
	state.checkIndex("append", index)

	actual := storage.AllocatorOf(state.store)
	if actual != op.strategy {
		b.metrics.recordStaleOp()
	}
	if actual.AcceptsValue(state.store, value) {
		return op.appendCompatible(b, state, actual, index, value)
	}
	return op.appendGeneralized(b, state, index, value)
}

func (op *appendOneOp) appendCompatible(b *ArrayBuilder, state *State, actual storage.Strategy, index int, value any) error {
	if length := actual.Capacity(state.store); index >= length {
		capacity, err := b.policy().GrowOne(length)
		if err != nil {
			return err
		}
		state.store = actual.Expand(state.store, capacity)
		state.capacity = capacity
		b.metrics.recordExpansion()
		b.updateStrategy(storage.AllocatorOf(state.store), capacity)
	}

	actual.Write(state.store, index, value)
	state.nextIndex++
	b.metrics.recordAppend(true)
	return nil
}

func (op *appendOneOp) appendGeneralized(b *ArrayBuilder, state *State, index int, value any) error {
	generalized := b.registry.GeneralizeForValue(state.store, value)

	neededCapacity := state.capacity
	if index >= state.capacity {
		var err error
		if neededCapacity, err = b.policy().GrowOne(state.capacity); err != nil {
			return err
		}
	}

	if b.logger.Enabled(logging.LevelDebug) {
		b.logger.Debug("%s store rejects %s, generalizing to %s",
			storage.AllocatorOf(state.store).Name(), inspect.Value(value, 0), generalized.Name())
	}

	authoritative := b.updateStrategy(generalized, neededCapacity)

	store := authoritative.Allocate(neededCapacity)
	storage.AllocatorOf(state.store).CopyContents(state.store, 0, store, 0, index)
	authoritative.Write(store, index, value)

	state.store = store
	state.capacity = neededCapacity
	state.nextIndex++
	b.metrics.recordAppend(false)
	return nil
}
