package native

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrAlreadyFreed is returned when a region is freed a second time.
	ErrAlreadyFreed = errors.New("native: pointer already freed")

	// ErrNotOwner is returned when a view tries to free its region.
	ErrNotOwner = errors.New("native: view does not own its region")

	// ErrInvalidSize is returned for negative allocation sizes.
	ErrInvalidSize = errors.New("native: invalid allocation size")

	// ErrUnknownProvider is returned by ProviderByName.
	ErrUnknownProvider = errors.New("native: unknown provider")

	// ErrUnsupported is returned when a provider is not available on this
	// platform.
	ErrUnsupported = errors.New("native: provider not supported on this platform")
)

// AllocError describes a failed allocation.
type AllocError struct {
	Provider string
	Size     int
	Err      error
}

// Error implements the error interface.
func (e *AllocError) Error() string {
	return fmt.Sprintf("native: %s allocation of %d bytes: %v", e.Provider, e.Size, e.Err)
}

// Unwrap returns the underlying error.
func (e *AllocError) Unwrap() error {
	return e.Err
}
