package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("engine is closed")

	// ErrEmptySite indicates a builder was requested without a site name.
	ErrEmptySite = errors.New("builder site must not be empty")
)
