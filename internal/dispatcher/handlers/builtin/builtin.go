// Package builtin provides the console's built-in commands.
package builtin

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/dispatcher/handler"
	"github.com/dshills/ecscli/internal/dispatcher/handlers/alias"
)

// Command names.
const (
	CmdHelp    = "help"    // list commands, or describe the named ones
	CmdHello   = "hello"   // greet the arguments
	CmdEcho    = "echo"    // print the arguments
	CmdAlias   = "alias"   // list or define aliases
	CmdUnalias = "unalias" // remove aliases
	CmdRename  = "rename"  // rename a command
	CmdQueue   = "queue"   // run a line on the next tick
	CmdStats   = "stats"   // show command metrics
)

// ErrUsage indicates a command was called with the wrong arguments.
var ErrUsage = errors.New("builtin: invalid arguments")

// Handler implements the built-in commands.
type Handler struct {
	d       *dispatcher.Dispatcher
	aliases *alias.Set
	out     io.Writer
}

// NewHandler creates the built-in commands for d, writing output to out.
func NewHandler(d *dispatcher.Dispatcher, aliases *alias.Set, out io.Writer) *Handler {
	if aliases == nil {
		aliases = alias.NewSet(d)
	}
	if out == nil {
		out = io.Discard
	}
	return &Handler{d: d, aliases: aliases, out: out}
}

// Register registers every built-in command.
func (h *Handler) Register() {
	h.d.RegisterNoArgs(CmdHelp, h.help)
	h.d.RegisterArgs(CmdHelp, h.describe)
	h.d.RegisterArgs(CmdHello, h.hello)
	h.d.RegisterArgs(CmdEcho, h.echo)
	h.d.RegisterNoArgs(CmdAlias, h.listAliases)
	h.d.RegisterArgs(CmdAlias, h.defineAlias)
	h.d.RegisterArgs(CmdUnalias, h.unalias)
	h.d.RegisterArgs(CmdRename, h.rename)
	h.d.RegisterArgs(CmdQueue, h.queue)
	h.d.RegisterNoArgs(CmdStats, h.stats)
}

func (h *Handler) help(ctx *execctx.ExecutionContext) error {
	fmt.Fprintln(h.out, "Available commands:")
	for name := range h.d.Names() {
		fmt.Fprintf(h.out, "  %s\n", name)
	}
	return nil
}

func (h *Handler) describe(ctx *execctx.ExecutionContext, args []string) error {
	if len(args) == 0 {
		return h.help(ctx)
	}

	tbl := h.d.Table()
	for _, name := range args {
		var variants []string
		if tbl.Has(name, handler.KindNoArgs) {
			variants = append(variants, "no arguments")
		}
		if tbl.Has(name, handler.KindArgs) {
			variants = append(variants, "arguments")
		}
		if name == ctx.Command {
			variants = append(variants, "running")
		}

		switch {
		case len(variants) == 0:
			fmt.Fprintf(h.out, "%s: not found\n", name)
		default:
			line := fmt.Sprintf("%s: %s", name, strings.Join(variants, ", "))
			if target, ok := h.aliases.Target(name); ok {
				line += fmt.Sprintf(" (alias for %q)", target)
			}
			fmt.Fprintln(h.out, line)
		}
	}
	return nil
}

func (h *Handler) hello(ctx *execctx.ExecutionContext, args []string) error {
	var b strings.Builder
	b.WriteString("Hello")
	for _, a := range args {
		b.WriteString(", ")
		b.WriteString(a)
	}
	b.WriteString("!")
	fmt.Fprintln(h.out, b.String())
	return nil
}

func (h *Handler) echo(ctx *execctx.ExecutionContext, args []string) error {
	fmt.Fprintln(h.out, strings.Join(args, " "))
	return nil
}

func (h *Handler) listAliases(ctx *execctx.ExecutionContext) error {
	names := h.aliases.Names()
	if len(names) == 0 {
		fmt.Fprintln(h.out, "no aliases defined")
		return nil
	}
	for _, name := range names {
		target, _ := h.aliases.Target(name)
		fmt.Fprintf(h.out, "%s = %s\n", name, target)
	}
	return nil
}

func (h *Handler) defineAlias(ctx *execctx.ExecutionContext, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: alias NAME COMMAND [ARGS...]", ErrUsage)
	}
	name, target := args[0], strings.Join(args[1:], " ")
	if err := h.aliases.Define(name, target); err != nil {
		return err
	}
	ctx.Logger.Info().Str("alias", name).Str("target", target).Msg("alias defined")
	return nil
}

func (h *Handler) unalias(ctx *execctx.ExecutionContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: unalias NAME...", ErrUsage)
	}
	var errs []error
	for _, name := range args {
		if err := h.aliases.Remove(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) rename(ctx *execctx.ExecutionContext, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: usage: rename OLD NEW", ErrUsage)
	}
	if err := h.aliases.Rename(args[0], args[1]); err != nil {
		return err
	}
	ctx.Logger.Info().Str("from", args[0]).Str("to", args[1]).Msg("command renamed")
	return nil
}

func (h *Handler) queue(ctx *execctx.ExecutionContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: queue COMMAND [ARGS...]", ErrUsage)
	}
	id, err := h.d.Submit(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "queued %s\n", id)
	return nil
}

func (h *Handler) stats(ctx *execctx.ExecutionContext) error {
	m := h.d.Metrics()
	if m == nil {
		fmt.Fprintln(h.out, "metrics are disabled")
		return nil
	}

	s := m.Snapshot()
	fmt.Fprintf(h.out, "executions: %d  errors: %d  not found: %d  panics: %d\n",
		s.TotalExecutions, s.TotalErrors, s.TotalNotFound, s.TotalPanics)

	top := m.TopCommands(10)
	if len(top) == 0 {
		return nil
	}
	fmt.Fprintf(h.out, "%-16s %8s %8s %8s %12s\n", "COMMAND", "CALLS", "ERRORS", "PANICS", "AVG")
	for _, cm := range top {
		fmt.Fprintf(h.out, "%-16s %8d %8d %8d %12s\n", cm.Name, cm.InvokeCount, cm.ErrorCount, cm.PanicCount, cm.AverageDuration())
	}
	return nil
}
