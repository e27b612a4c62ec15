package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrCommandFailed is returned when a Lua command reports failure.
	ErrCommandFailed = errors.New("lua command failed")

	// ErrNoWorld is returned when cli.run is used before a world is attached.
	ErrNoWorld = errors.New("lua: no world attached")
)
