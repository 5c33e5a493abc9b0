package native

// HeapProvider backs regions with Go-heap slices. Addresses are stable
// because Go does not move heap objects, but the memory is reclaimed by the
// garbage collector rather than by Free.
type HeapProvider struct {
	stats counters
}

// NewHeapProvider creates a heap provider.
func NewHeapProvider() *HeapProvider {
	return &HeapProvider{}
}

// Name implements Provider.
func (h *HeapProvider) Name() string { return ProviderHeap }

// Malloc implements Provider.
func (h *HeapProvider) Malloc(n int) (*Pointer, error) {
	return h.Calloc(n)
}

// Calloc implements Provider.
func (h *HeapProvider) Calloc(n int) (*Pointer, error) {
	if err := checkSize(ProviderHeap, n); err != nil {
		return nil, err
	}
	return newPointer(make([]byte, n), n, nil, &h.stats), nil
}

// Stats implements Provider.
func (h *HeapProvider) Stats() Stats {
	return h.stats.snapshot()
}
