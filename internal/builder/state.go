package builder

import "github.com/dshills/rtcore/internal/storage"

// State is a single in-flight build, created by Start and consumed by
// Finish. It belongs to the goroutine that started it; no locking is done.
type State struct {
	store     storage.Store
	capacity  int
	nextIndex int
	finished  bool
}

func newState(store storage.Store, capacity int) *State {
	return &State{store: store, capacity: capacity}
}

// Store returns the backing store currently held.
func (s *State) Store() storage.Store {
	return s.store
}

// Capacity returns the capacity the build is sized for. For a build started
// on the empty strategy this may exceed the held store's capacity; the
// first append allocates it.
func (s *State) Capacity() int {
	return s.capacity
}

// NextIndex returns the number of elements written so far.
func (s *State) NextIndex() int {
	return s.nextIndex
}

func (s *State) checkIndex(op string, index int) {
	if s.finished {
		precondition("%s on a finished build", op)
	}
	if index != s.nextIndex {
		precondition("%s at index %d, next index is %d", op, index, s.nextIndex)
	}
}
