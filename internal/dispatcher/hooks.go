package dispatcher

import (
	"github.com/rs/zerolog"

	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

// PreExecuteHook is called after a command is resolved and before its
// handler is taken out of the table.
type PreExecuteHook interface {
	// PreExecute may rewrite the arguments. Returning false cancels the call.
	PreExecute(line *Line, kind handler.Kind) bool
}

// PostExecuteHook is called after every Execute, including calls that did
// not reach a handler.
type PostExecuteHook interface {
	PostExecute(line Line, result *handler.Result)
}

// PreExecuteFunc is a function adapter for PreExecuteHook.
type PreExecuteFunc func(line *Line, kind handler.Kind) bool

// PreExecute implements PreExecuteHook.
func (f PreExecuteFunc) PreExecute(line *Line, kind handler.Kind) bool {
	return f(line, kind)
}

// PostExecuteFunc is a function adapter for PostExecuteHook.
type PostExecuteFunc func(line Line, result *handler.Result)

// PostExecute implements PostExecuteHook.
func (f PostExecuteFunc) PostExecute(line Line, result *handler.Result) {
	f(line, result)
}

// LoggingHook logs the outcome of every command at debug level.
type LoggingHook struct {
	Logger zerolog.Logger
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(l zerolog.Logger) *LoggingHook {
	return &LoggingHook{Logger: l}
}

// PostExecute logs the result.
func (h *LoggingHook) PostExecute(line Line, result *handler.Result) {
	h.Logger.Debug().
		Str("command", line.Name).
		Strs("args", line.Args).
		Str("status", result.Status.String()).
		Dur("duration", result.Duration).
		Msg("command complete")
}

// DenyHook cancels calls to a fixed set of command names.
type DenyHook struct {
	names map[string]bool
}

// NewDenyHook creates a hook that cancels calls to the given commands.
func NewDenyHook(names ...string) *DenyHook {
	h := &DenyHook{names: make(map[string]bool, len(names))}
	for _, n := range names {
		h.names[n] = true
	}
	return h
}

// PreExecute implements PreExecuteHook.
func (h *DenyHook) PreExecute(line *Line, kind handler.Kind) bool {
	return !h.names[line.Name]
}
