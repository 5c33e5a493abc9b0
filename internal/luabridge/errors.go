package luabridge

import "errors"

// Errors for Lua bridge operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrCyclicTable is returned when a table contains itself.
	ErrCyclicTable = errors.New("table contains itself")

	// ErrUnsupportedValue is returned for Lua values with no array element form.
	ErrUnsupportedValue = errors.New("unsupported lua value")
)
