package lua

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// DefaultCallStackSize is the Lua call stack size. Re-entrant commands nest
// Lua calls, so it is larger than gopher-lua's default.
const DefaultCallStackSize = 1024

// State wraps gopher-lua with sandboxing for console scripts.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. All operations on a
// State must be called from the goroutine that owns the world. No lock is
// held across calls, since a command function can call back into the State
// through cli.run.
type State struct {
	L *lua.LState

	out    io.Writer
	logger zerolog.Logger

	callStackSize int

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithOutput sets where print writes.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.out = w
	}
}

// WithLogger sets the logger for script diagnostics.
func WithLogger(l zerolog.Logger) StateOption {
	return func(s *State) {
		s.logger = l
	}
}

// WithCallStackSize sets the maximum Lua call depth.
func WithCallStackSize(n int) StateOption {
	return func(s *State) {
		if n > 0 {
			s.callStackSize = n
		}
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		out:           os.Stdout,
		logger:        zerolog.Nop(),
		callStackSize: DefaultCallStackSize,
	}

	for _, opt := range opts {
		opt(state)
	}

	// Create Lua state with limited libraries
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true, // We'll open selectively
		CallStackSize: state.callStackSize,
	})
	state.L = L

	openSafeLibraries(L)
	installSandbox(L, state.out)

	return state, nil
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	if s.closed {
		return ErrStateClosed
	}

	s.logger.Debug().Str("script", path).Msg("loading script")
	return s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua string.
func (s *State) DoString(code string) error {
	if s.closed {
		return ErrStateClosed
	}

	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// RegisterModule registers a global module with the given functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	if s.closed {
		return
	}

	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
}

// Logger returns the state's logger.
func (s *State) Logger() zerolog.Logger {
	return s.logger
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
