package lua

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/world"
)

// CLIModule is the name of the global table scripts use.
const CLIModule = "cli"

// CLI binds a State to a dispatcher through the cli module.
type CLI struct {
	state *State
	d     *dispatcher.Dispatcher
	world *world.World

	// stack holds the contexts of the Lua commands currently running,
	// innermost last.
	stack []*execctx.ExecutionContext

	owned map[string]bool
}

// InstallCLI installs the cli module into s. Lines run outside any command,
// such as from a script's top level, execute against w.
func InstallCLI(s *State, d *dispatcher.Dispatcher, w *world.World) *CLI {
	c := &CLI{
		state: s,
		d:     d,
		world: w,
		owned: make(map[string]bool),
	}

	s.RegisterModule(CLIModule, map[string]lua.LGFunction{
		"register":        c.luaRegister,
		"register_noargs": c.luaRegisterNoArgs,
		"unregister":      c.luaUnregister,
		"run":             c.luaRun,
		"queue":           c.luaQueue,
		"exists":          c.luaExists,
		"names":           c.luaNames,
		"rename":          c.luaRename,
		"log":             c.luaLog,
	})
	return c
}

// SetWorld sets the world used for lines run outside any command.
func (c *CLI) SetWorld(w *world.World) {
	c.world = w
}

// Registered returns the sorted names of commands registered by scripts.
func (c *CLI) Registered() []string {
	names := make([]string, 0, len(c.owned))
	for n := range c.owned {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *CLI) current() *execctx.ExecutionContext {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

func (c *CLI) logger() zerolog.Logger {
	if ctx := c.current(); ctx != nil {
		return ctx.Logger
	}
	return c.state.Logger()
}

// call runs a Lua command function. The function fails by raising an error
// or by returning false, optionally followed by a message.
func (c *CLI) call(ctx *execctx.ExecutionContext, fn *lua.LFunction, args ...lua.LValue) error {
	if c.state.IsClosed() {
		return ErrStateClosed
	}

	c.stack = append(c.stack, ctx)
	defer func() {
		c.stack = c.stack[:len(c.stack)-1]
	}()

	L := c.state.L
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}

	ok, msg := L.Get(-2), L.Get(-1)
	L.Pop(2)

	if ok == lua.LFalse {
		if msg == lua.LNil {
			return ErrCommandFailed
		}
		return fmt.Errorf("%w: %s", ErrCommandFailed, msg.String())
	}
	return nil
}

func (c *CLI) luaRegister(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	c.d.RegisterArgs(name, func(ctx *execctx.ExecutionContext, args []string) error {
		tbl := c.state.L.NewTable()
		for _, a := range args {
			tbl.Append(lua.LString(a))
		}
		return c.call(ctx, fn, tbl)
	})
	c.owned[name] = true
	log := c.logger()
	log.Debug().Str("command", name).Msg("lua command registered")
	return 0
}

func (c *CLI) luaRegisterNoArgs(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	c.d.RegisterNoArgs(name, func(ctx *execctx.ExecutionContext) error {
		return c.call(ctx, fn)
	})
	c.owned[name] = true
	log := c.logger()
	log.Debug().Str("command", name).Msg("lua command registered")
	return 0
}

func (c *CLI) luaUnregister(L *lua.LState) int {
	name := L.CheckString(1)
	c.d.Unregister(name)
	delete(c.owned, name)
	return 0
}

// pushResult pushes true, or false and the error message.
func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (c *CLI) luaRun(L *lua.LState) int {
	line := L.CheckString(1)

	if ctx := c.current(); ctx != nil {
		return pushResult(L, ctx.Run(line))
	}
	if c.world == nil {
		return pushResult(L, ErrNoWorld)
	}
	return pushResult(L, c.d.Execute(line, c.world).Err())
}

func (c *CLI) luaQueue(L *lua.LState) int {
	line := L.CheckString(1)

	if ctx := c.current(); ctx != nil {
		ctx.Queue(line)
		return pushResult(L, nil)
	}
	_, err := c.d.Submit(line)
	return pushResult(L, err)
}

func (c *CLI) luaExists(L *lua.LState) int {
	L.Push(lua.LBool(c.d.Exists(L.CheckString(1))))
	return 1
}

func (c *CLI) luaNames(L *lua.LState) int {
	tbl := L.NewTable()
	for name := range c.d.Names() {
		tbl.Append(lua.LString(name))
	}
	L.Push(tbl)
	return 1
}

func (c *CLI) luaRename(L *lua.LState) int {
	oldName := L.CheckString(1)
	newName := L.CheckString(2)

	err := c.d.Rename(oldName, newName)
	if err == nil && c.owned[oldName] {
		delete(c.owned, oldName)
		c.owned[newName] = true
	}
	return pushResult(L, err)
}

func (c *CLI) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	log := c.logger()
	log.Info().Str("source", "lua").Msg(msg)
	return 0
}

// LoadScripts runs each script in order, stopping at the first failure.
func (c *CLI) LoadScripts(paths []string) error {
	log := c.state.Logger()
	for _, p := range paths {
		if err := c.state.DoFile(p); err != nil {
			return fmt.Errorf("load script %s: %w", p, err)
		}
		log.Info().Str("script", p).Msg("script loaded")
	}
	return nil
}
