package storage

import "errors"

// Errors returned by registry operations.
var (
	// ErrAlreadyRegistered indicates a strategy is already part of the lattice.
	ErrAlreadyRegistered = errors.New("strategy already registered")

	// ErrUnknownStrategy indicates a strategy that was never registered.
	ErrUnknownStrategy = errors.New("unknown strategy")
)
