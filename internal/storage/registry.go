package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the known strategies and their partial order.
//
// The order is a tree rooted at Object with Empty below everything, so any
// two strategies have a least upper bound: their lowest common ancestor.
type Registry struct {
	mu      sync.RWMutex
	parent  map[Strategy]Strategy
	depth   map[Strategy]int
	ordered []Strategy // most specific first, used by ForValue
}

// NewRegistry returns a registry containing the built-in strategies:
// empty ≤ int32 ≤ int64 ≤ object and empty ≤ float64 ≤ object.
func NewRegistry() *Registry {
	r := &Registry{
		parent: map[Strategy]Strategy{Object: nil},
		depth:  map[Strategy]int{Object: 0},
	}
	r.ordered = []Strategy{Object}
	r.mustRegister(Int64, Object)
	r.mustRegister(Float64, Object)
	r.mustRegister(Int32, Int64)
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the shared registry of built-in strategies.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register adds strategy s directly below parent.
func (r *Registry) Register(s, parent Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s == Empty {
		return fmt.Errorf("%w: empty is implicit", ErrAlreadyRegistered)
	}
	if _, ok := r.depth[s]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, s.Name())
	}
	d, ok := r.depth[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, parent.Name())
	}

	r.parent[s] = parent
	r.depth[s] = d + 1
	r.ordered = append(r.ordered, s)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.depth[r.ordered[i]] > r.depth[r.ordered[j]]
	})
	return nil
}

func (r *Registry) mustRegister(s, parent Strategy) {
	if err := r.Register(s, parent); err != nil {
		panic(err)
	}
}

// Strategies returns the registered strategies, most specific first.
// Empty is not included.
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Lookup returns the registered strategy with the given name.
func (r *Registry) Lookup(name string) (Strategy, bool) {
	if name == Empty.Name() {
		return Empty, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.ordered {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Leq reports whether a ≤ b in the lattice.
func (r *Registry) Leq(a, b Strategy) bool {
	if a == b || a == Empty {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for s := r.parent[a]; s != nil; s = r.parent[s] {
		if s == b {
			return true
		}
	}
	return false
}

// Generalize returns the least strategy accepting everything a and b accept.
// It panics if either strategy is unknown: the lattice is total over
// registered strategies, so that can only be a programming error.
func (r *Registry) Generalize(a, b Strategy) Strategy {
	switch {
	case a == b:
		return a
	case a == Empty:
		return b
	case b == Empty:
		return a
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	da, okA := r.depth[a]
	db, okB := r.depth[b]
	if !okA || !okB {
		panic(fmt.Sprintf("storage: no upper bound for %s and %s", a.Name(), b.Name()))
	}
	for da > db {
		a, da = r.parent[a], da-1
	}
	for db > da {
		b, db = r.parent[b], db-1
	}
	for a != b {
		a, b = r.parent[a], r.parent[b]
	}
	return a
}

// ForValue returns the least strategy that accepts v.
func (r *Registry) ForValue(v any) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.ordered {
		if s.AcceptsValue(s.Allocate(0), v) {
			return s
		}
	}
	return Object
}

// GeneralizeForValue returns the strategy to move store to so that it can
// also hold v.
func (r *Registry) GeneralizeForValue(store Store, v any) Strategy {
	return r.Generalize(store.Strategy(), r.ForValue(v))
}

// GeneralizeForStore returns the least strategy able to hold the contents
// of both stores.
func (r *Registry) GeneralizeForStore(a, b Store) Strategy {
	return r.Generalize(a.Strategy(), b.Strategy())
}

// ArrayOf builds an Array holding values with the least accepting strategy.
func (r *Registry) ArrayOf(values ...any) Array {
	s := Empty
	for _, v := range values {
		s = r.Generalize(s, r.ForValue(v))
	}
	store := s.Allocate(len(values))
	for i, v := range values {
		s.Write(store, i, v)
	}
	return Array{Store: store, Size: len(values)}
}
