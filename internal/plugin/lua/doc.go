// Package lua lets console commands be written in Lua.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - A cli module for registering and running console commands
//
// # State
//
// The State type manages a Lua runtime with sandboxing:
//
//	state, err := lua.NewState(lua.WithOutput(os.Stdout))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	lua.InstallCLI(state, d, w)
//	if err := state.DoFile("scripts/greet.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring and require are removed, and print writes to
// the state's output writer.
//
// # The cli module
//
//	cli.register(name, fn)        -- fn(args) handles "name a b ..."
//	cli.register_noargs(name, fn) -- fn() handles "name"
//	cli.unregister(name)
//	cli.run(line)                 -- true, or false and a message
//	cli.queue(line)               -- runs after the current command
//	cli.exists(name)
//	cli.names()                   -- sorted array of command names
//	cli.rename(old, new)          -- true, or false and a message
//	cli.log(message)
//
// A command function fails when it raises an error or returns false with an
// optional message.
//
// # Threading
//
// gopher-lua's LState is not goroutine-safe. A State must only be used by
// the goroutine that owns the world. Command functions may call cli.run,
// which re-enters the dispatcher and possibly the same State.
package lua
