package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the operator ended the session.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called while the application runs.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrShutDown indicates the application was already shut down.
	ErrShutDown = errors.New("application shut down")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "reload", "startup")
	Target string // Target of the operation (e.g., file path, command line)
	Err    error  // Underlying error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
