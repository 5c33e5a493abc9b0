//go:build unix

package native

import (
	"golang.org/x/sys/unix"
)

// MmapProvider backs each region with an anonymous private mapping, so the
// memory lives outside the Go heap and is returned to the OS on Free.
type MmapProvider struct {
	stats counters
}

// NewMmapProvider creates an mmap provider.
func NewMmapProvider() (*MmapProvider, error) {
	return &MmapProvider{}, nil
}

// Name implements Provider.
func (m *MmapProvider) Name() string { return ProviderMmap }

// Malloc implements Provider. Anonymous mappings are always zeroed.
func (m *MmapProvider) Malloc(n int) (*Pointer, error) {
	return m.Calloc(n)
}

// Calloc implements Provider.
func (m *MmapProvider) Calloc(n int) (*Pointer, error) {
	if err := checkSize(ProviderMmap, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return newPointer(nil, 0, nil, &m.stats), nil
	}

	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, &AllocError{Provider: ProviderMmap, Size: n, Err: err}
	}
	return newPointer(mem, n, unix.Munmap, &m.stats), nil
}

// Stats implements Provider.
func (m *MmapProvider) Stats() Stats {
	return m.stats.snapshot()
}
