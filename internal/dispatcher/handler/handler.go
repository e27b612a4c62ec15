// Package handler provides the handler types registered for console commands.
package handler

import (
	"errors"

	"github.com/dshills/ecscli/internal/dispatcher/execctx"
)

// Kind selects which variant of a command a handler implements.
type Kind uint8

const (
	// KindNoArgs handlers take no positional arguments.
	KindNoArgs Kind = iota
	// KindArgs handlers take an ordered list of string arguments.
	KindArgs
)

// Kinds lists every handler kind, in slot order.
var Kinds = [...]Kind{KindNoArgs, KindArgs}

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNoArgs:
		return "noargs"
	case KindArgs:
		return "args"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindNoArgs || k == KindArgs
}

// NoArgsFunc implements the no-argument variant of a command.
type NoArgsFunc func(ctx *execctx.ExecutionContext) error

// ArgsFunc implements the argument-list variant of a command.
type ArgsFunc func(ctx *execctx.ExecutionContext, args []string) error

// ErrNilFunc is returned when invoking a handler with no function.
var ErrNilFunc = errors.New("handler: function is nil")

// Handler is a registered unit of behavior: exactly one of a no-argument
// function or an argument-list function. Handlers are used by pointer; the
// registry hands back the same pointer it was given.
type Handler struct {
	kind   Kind
	noargs NoArgsFunc
	args   ArgsFunc
}

// NoArgs creates a no-argument handler.
func NoArgs(fn NoArgsFunc) *Handler {
	return &Handler{kind: KindNoArgs, noargs: fn}
}

// Args creates an argument-list handler.
func Args(fn ArgsFunc) *Handler {
	return &Handler{kind: KindArgs, args: fn}
}

// Kind returns the variant this handler implements.
func (h *Handler) Kind() Kind {
	return h.kind
}

// Invoke runs the handler. The no-argument variant ignores args; the
// argument-list variant always receives a non-nil slice.
func (h *Handler) Invoke(ctx *execctx.ExecutionContext, args []string) error {
	switch h.kind {
	case KindNoArgs:
		if h.noargs == nil {
			return ErrNilFunc
		}
		return h.noargs(ctx)
	case KindArgs:
		if h.args == nil {
			return ErrNilFunc
		}
		if args == nil {
			args = []string{}
		}
		return h.args(ctx, args)
	default:
		return ErrNilFunc
	}
}
