package builder

import "github.com/dshills/rtcore/internal/storage"

// startOp allocates fresh states for one (strategy, expected length) pair.
// It is immutable; the builder swaps in a new one on widening.
type startOp struct {
	strategy       storage.Strategy
	expectedLength int
}

func newStartOp(strategy storage.Strategy, expectedLength int) *startOp {
	return &startOp{strategy: strategy, expectedLength: max(expectedLength, 0)}
}

// start returns a state sized to the expected length, clamped to
// maxLength. The empty strategy allocates nothing; the first append does.
func (op *startOp) start(maxLength int) *State {
	length := min(op.expectedLength, maxLength)
	if op.strategy == storage.Empty {
		return newState(storage.Empty.Allocate(0), length)
	}
	return newState(op.strategy.Allocate(length), length)
}

// startWithLength returns a state with capacity length, widening the
// builder's expectation first when length exceeds it.
func (op *startOp) startWithLength(b *ArrayBuilder, length int) (*State, error) {
	if length < 0 {
		precondition("start with negative length %d", length)
	}
	policy := b.policy()
	if length > policy.MaxLength {
		return nil, &CapacityError{Requested: length, Max: policy.MaxLength}
	}

	strategy := op.strategy
	if length > op.expectedLength {
		strategy = b.updateStrategy(op.strategy, length)
	}
	if strategy == storage.Empty {
		return newState(storage.Empty.Allocate(0), length), nil
	}
	return newState(strategy.Allocate(length), length), nil
}
