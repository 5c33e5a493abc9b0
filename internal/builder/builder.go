package builder

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/storage"
)

// ArrayBuilder builds arrays for one call site and learns, across builds,
// which strategy and length to preallocate.
//
// The assumed strategy lives in an immutable op table read with atomic
// loads. Widening replaces the ops under mu; readers that loaded a stale op
// fall through to a slow path that re-resolves under the lock.
type ArrayBuilder struct {
	id       uuid.UUID
	site     string
	registry *storage.Registry
	policies PolicySource
	logger   *logging.Logger
	metrics  *Metrics

	mu          sync.Mutex
	startOp     atomic.Pointer[startOp]
	appendOne   atomic.Pointer[appendOneOp]
	appendArray atomic.Pointer[appendArrayOp]
}

// New creates a builder for the named site. It starts at the empty strategy
// with an expected length of zero.
func New(site string, opts ...Option) *ArrayBuilder {
	b := &ArrayBuilder{
		id:       uuid.New(),
		site:     site,
		registry: storage.Default(),
		policies: StaticPolicy(DefaultPolicy()),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics()
	}
	b.logger = b.logger.WithComponent("builder").WithField("site", site)
	b.startOp.Store(newStartOp(storage.Empty, 0))
	return b
}

// ID returns the builder's unique id.
func (b *ArrayBuilder) ID() uuid.UUID {
	return b.id
}

// Site returns the site name given to New.
func (b *ArrayBuilder) Site() string {
	return b.site
}

// Strategy returns the currently assumed strategy.
func (b *ArrayBuilder) Strategy() storage.Strategy {
	return b.startOp.Load().strategy
}

// ExpectedLength returns the currently assumed length.
func (b *ArrayBuilder) ExpectedLength() int {
	return b.startOp.Load().expectedLength
}

// Metrics returns the metrics this builder records into.
func (b *ArrayBuilder) Metrics() *Metrics {
	return b.metrics
}

// Start begins a build sized to the expected length, or to the policy's
// MaxLength if that has since been lowered below it.
func (b *ArrayBuilder) Start() *State {
	b.metrics.recordStart()
	return b.startOp.Load().start(b.policy().MaxLength)
}

// StartWithLength begins a build with room for length elements. A length
// above the expected length widens the expectation for later builds.
// It panics if length is negative.
func (b *ArrayBuilder) StartWithLength(length int) (*State, error) {
	state, err := b.startOp.Load().startWithLength(b, length)
	if err != nil {
		return nil, err
	}
	b.metrics.recordStart()
	return state, nil
}

// AppendOne writes value at index, which must equal state.NextIndex().
// The only error is ErrOutOfCapacity, after which the build must be
// abandoned.
func (b *ArrayBuilder) AppendOne(state *State, index int, value any) error {
	return b.appendOneOp().append(b, state, index, value)
}

// AppendArray writes every element of other starting at index, which must
// equal state.NextIndex().
func (b *ArrayBuilder) AppendArray(state *State, index int, other storage.Array) error {
	return b.appendArrayOp().append(b, state, index, other)
}

// Finish ends the build and hands back its store as is. It panics unless
// length equals the number of elements appended.
func (b *ArrayBuilder) Finish(state *State, length int) storage.Array {
	if state.finished {
		precondition("finish on a finished build")
	}
	if length != state.nextIndex {
		precondition("finish with length %d, %d elements appended", length, state.nextIndex)
	}
	state.finished = true
	b.metrics.recordFinish()
	return storage.Array{Store: state.store, Size: length}
}

// appendOneOp returns the append-one op, creating it on first use.
func (b *ArrayBuilder) appendOneOp() *appendOneOp {
	if op := b.appendOne.Load(); op != nil {
		return op
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if op := b.appendOne.Load(); op != nil {
		return op
	}
	op := newAppendOneOp(b.startOp.Load().strategy)
	b.appendOne.Store(op)
	b.metrics.recordOpCreated()
	return op
}

// appendArrayOp returns the append-array op, creating it on first use.
func (b *ArrayBuilder) appendArrayOp() *appendArrayOp {
	if op := b.appendArray.Load(); op != nil {
		return op
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if op := b.appendArray.Load(); op != nil {
		return op
	}
	op := newAppendArrayOp(b.startOp.Load().strategy)
	b.appendArray.Store(op)
	b.metrics.recordOpCreated()
	return op
}

// updateStrategy merges (strategy, length) into the cached assumption and
// returns the resulting strategy, which may be wider than requested if
// another build widened concurrently.
func (b *ArrayBuilder) updateStrategy(strategy storage.Strategy, length int) storage.Strategy {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.startOp.Load()
	merged := old.strategy
	if strategy != old.strategy {
		merged = b.registry.Generalize(old.strategy, strategy)
	}
	expected := max(old.expectedLength, length)

	strategyChanged := merged != old.strategy
	lengthChanged := expected > old.expectedLength
	if !strategyChanged && !lengthChanged {
		return merged
	}

	b.startOp.Store(newStartOp(merged, expected))
	if strategyChanged {
		if b.appendOne.Load() != nil {
			b.appendOne.Store(newAppendOneOp(merged))
			b.metrics.recordOpCreated()
		}
		if b.appendArray.Load() != nil {
			b.appendArray.Store(newAppendArrayOp(merged))
			b.metrics.recordOpCreated()
		}
	}
	b.metrics.recordWidening(strategyChanged, lengthChanged)
	b.logger.Debug("widened (%s, %d) to (%s, %d)",
		old.strategy.Name(), old.expectedLength, merged.Name(), expected)
	return merged
}

func (b *ArrayBuilder) policy() Policy {
	return b.policies.CapacityPolicy().Normalize()
}
