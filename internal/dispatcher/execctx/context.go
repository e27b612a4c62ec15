// Package execctx provides the execution context handed to command handlers.
package execctx

import (
	"github.com/rs/zerolog"

	"github.com/dshills/ecscli/internal/world"
)

// Runner executes a command line immediately under the caller's exclusive
// access. The dispatcher implements it.
type Runner interface {
	Execute(line string, w *world.World) error
}

// RunnerFunc is a function adapter for Runner.
type RunnerFunc func(line string, w *world.World) error

// Execute implements Runner.
func (f RunnerFunc) Execute(line string, w *world.World) error {
	return f(line, w)
}

// ExecutionContext provides context for a single command invocation.
type ExecutionContext struct {
	// World is the host state the handler may read and mutate.
	World *world.World

	// Command is the name the handler was invoked as.
	Command string

	// Args holds the positional arguments. Empty for the no-argument variant.
	Args []string

	// InvocationID uniquely identifies this invocation in logs.
	InvocationID string

	// Depth is the re-entrant nesting level (0 for a top-level call).
	Depth int

	// Logger is scoped to the invocation.
	Logger zerolog.Logger

	runner   Runner
	commands *world.Commands
}

// New creates a new execution context.
func New() *ExecutionContext {
	return &ExecutionContext{
		Logger:   zerolog.Nop(),
		commands: world.NewCommands(),
	}
}

// WithWorld returns the context with the world set.
func (ctx *ExecutionContext) WithWorld(w *world.World) *ExecutionContext {
	ctx.World = w
	return ctx
}

// WithRunner returns the context with the re-entrant runner set.
func (ctx *ExecutionContext) WithRunner(r Runner) *ExecutionContext {
	ctx.runner = r
	return ctx
}

// WithCommand returns the context with the command name and arguments set.
func (ctx *ExecutionContext) WithCommand(name string, args []string) *ExecutionContext {
	ctx.Command = name
	ctx.Args = args
	return ctx
}

// WithLogger returns the context with the logger set.
func (ctx *ExecutionContext) WithLogger(l zerolog.Logger) *ExecutionContext {
	ctx.Logger = l
	return ctx
}

// HasArgs returns true if positional arguments were supplied.
func (ctx *ExecutionContext) HasArgs() bool {
	return len(ctx.Args) > 0
}

// Arg returns the i-th argument, or "" if out of range.
func (ctx *ExecutionContext) Arg(i int) string {
	if i < 0 || i >= len(ctx.Args) {
		return ""
	}
	return ctx.Args[i]
}

// Run executes another command line immediately. While this handler runs its
// own slot is checked out, so invoking the same command variant reports it as
// not found rather than recursing.
func (ctx *ExecutionContext) Run(line string) error {
	if ctx.runner == nil {
		return ErrMissingRunner
	}
	if ctx.World == nil {
		return ErrMissingWorld
	}
	return ctx.runner.Execute(line, ctx.World)
}

// Queue defers a command line until this handler returns. Queued lines run
// in submission order, interleaved with deferred world mutations, before the
// handler is restored to the registry. A queued line reports its own
// outcome and does not fail the handler that queued it.
func (ctx *ExecutionContext) Queue(line string) {
	ctx.Defer(func(w *world.World) error {
		if ctx.runner == nil {
			return ErrMissingRunner
		}
		_ = ctx.runner.Execute(line, w)
		return nil
	})
}

// Defer records a world mutation to apply once the handler returns.
func (ctx *ExecutionContext) Defer(fn func(w *world.World) error) {
	ctx.Commands().Push(fn)
}

// Commands returns the invocation's deferred mutation buffer.
func (ctx *ExecutionContext) Commands() *world.Commands {
	if ctx.commands == nil {
		ctx.commands = world.NewCommands()
	}
	return ctx.commands
}

// Validate checks that the context has all required components.
func (ctx *ExecutionContext) Validate() error {
	if ctx.World == nil {
		return ErrMissingWorld
	}
	return nil
}
