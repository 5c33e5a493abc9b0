package native

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Provider allocates native regions.
type Provider interface {
	// Name returns the provider's configuration name.
	Name() string
	// Malloc allocates n bytes. Contents are unspecified.
	Malloc(n int) (*Pointer, error)
	// Calloc allocates n zeroed bytes.
	Calloc(n int) (*Pointer, error)
	// Stats returns allocation counters.
	Stats() Stats
}

// Stats counts a provider's allocations.
type Stats struct {
	Allocated uint64
	Freed     uint64
	LiveBytes int64
}

// Live returns the number of regions not yet freed.
func (s Stats) Live() uint64 {
	return s.Allocated - s.Freed
}

type counters struct {
	allocated atomic.Uint64
	freed     atomic.Uint64
	liveBytes atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Allocated: c.allocated.Load(),
		Freed:     c.freed.Load(),
		LiveBytes: c.liveBytes.Load(),
	}
}

// Provider names accepted by ProviderByName.
const (
	ProviderMmap = "mmap"
	ProviderHeap = "heap"
)

// ProviderByName returns a new provider for name. An empty name selects
// DefaultProvider.
func ProviderByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderMmap:
		p, err := NewMmapProvider()
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderHeap:
		return NewHeapProvider(), nil
	case "":
		return DefaultProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// DefaultProvider returns the mmap provider where available and the heap
// provider otherwise.
func DefaultProvider() Provider {
	if p, err := NewMmapProvider(); err == nil {
		return p
	}
	return NewHeapProvider()
}

func checkSize(provider string, n int) error {
	if n < 0 {
		return &AllocError{Provider: provider, Size: n, Err: ErrInvalidSize}
	}
	return nil
}
