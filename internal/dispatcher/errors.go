package dispatcher

import (
	"errors"
	"fmt"

	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

// Dispatcher errors.
var (
	// ErrEmptyInput indicates a blank command line.
	ErrEmptyInput = errors.New("dispatcher: no command given")

	// ErrCommandNotFound indicates no variant is registered under the name.
	ErrCommandNotFound = errors.New("dispatcher: command not found")

	// ErrArgumentsUnsupported indicates arguments were discarded because the
	// command only has a no-argument variant.
	ErrArgumentsUnsupported = errors.New("dispatcher: command does not accept arguments; ignoring extras")

	// ErrHandlerFailure indicates the invoked handler failed.
	ErrHandlerFailure = errors.New("dispatcher: handler failed")

	// ErrNameConflict indicates a rename target is already in use.
	ErrNameConflict = errors.New("dispatcher: command name already in use")

	// ErrCancelled indicates the call was cancelled by a hook.
	ErrCancelled = errors.New("dispatcher: command cancelled by hook")

	// ErrQueueFull indicates the deferred queue is at capacity.
	ErrQueueFull = errors.New("dispatcher: deferred queue is full")

	// ErrPanic indicates a handler panicked and was recovered.
	ErrPanic = errors.New("dispatcher: handler panicked")
)

// CommandError attaches a command name to a dispatcher condition.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Command)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// HandlerError reports a failed handler invocation. It matches
// ErrHandlerFailure with errors.Is and unwraps to the handler's own error.
type HandlerError struct {
	Command string
	Kind    handler.Kind
	Cause   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("dispatcher: command %q (%s) failed: %v", e.Command, e.Kind, e.Cause)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrHandlerFailure.
func (e *HandlerError) Is(target error) bool {
	return target == ErrHandlerFailure
}

// RenameError reports a failed rename.
type RenameError struct {
	OldName string
	NewName string
	Err     error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("%v: rename %q -> %q", e.Err, e.OldName, e.NewName)
}

func (e *RenameError) Unwrap() error {
	return e.Err
}
