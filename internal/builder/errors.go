package builder

import (
	"errors"
	"fmt"
)

// ErrOutOfCapacity indicates the capacity policy cannot satisfy a request
// within its maximum length. The build must be abandoned.
var ErrOutOfCapacity = errors.New("out of capacity")

// CapacityError describes a failed capacity request.
type CapacityError struct {
	// Requested is the number of elements that had to fit.
	Requested int
	// Max is the policy's maximum length.
	Max int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: requested %d elements, maximum is %d", ErrOutOfCapacity, e.Requested, e.Max)
}

// Unwrap returns ErrOutOfCapacity.
func (e *CapacityError) Unwrap() error {
	return ErrOutOfCapacity
}

// precondition panics with a builder-prefixed message. Precondition
// violations are programming errors and are never returned as errors.
func precondition(format string, args ...any) {
	panic(fmt.Sprintf("builder: "+format, args...))
}
