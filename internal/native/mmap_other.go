//go:build !unix

package native

// MmapProvider is unavailable on this platform.
type MmapProvider struct {
	HeapProvider
}

// NewMmapProvider returns ErrUnsupported on this platform.
func NewMmapProvider() (*MmapProvider, error) {
	return nil, ErrUnsupported
}
