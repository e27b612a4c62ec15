package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingWorld indicates the world is required but not set.
	ErrMissingWorld = errors.New("execution context: world is required")

	// ErrMissingRunner indicates a nested command was requested without a runner.
	ErrMissingRunner = errors.New("execution context: runner is required")
)
