// Package dispatcher maps command names to handlers and executes console
// command lines against the world.
//
// # Command Table
//
// The Table holds up to two handlers per name: a no-argument variant and an
// argument-list variant. Registering one variant never disturbs the other,
// and a name disappears once neither variant remains.
//
// # Execution
//
// When a line is executed:
//
//  1. The line is split on ASCII whitespace; the first token is the name
//  2. A variant is selected (arguments prefer the argument-list variant,
//     no arguments prefer the no-argument variant)
//  3. Pre-execute hooks are called (can rewrite arguments or cancel)
//  4. The handler is taken out of the table
//  5. The handler is invoked with an ExecutionContext
//  6. Deferred world mutations and queued lines are applied
//  7. The handler is put back under the command's current name
//  8. Post-execute hooks are called and metrics recorded
//
// While a handler runs, its slot is checked out. A handler that invokes its
// own command variant sees it as not found, which also stops alias cycles.
// Handlers may register, deregister and rename any command, including the one
// that is running; the running handler is restored when it returns unless a
// newer handler was registered into its slot in the meantime.
//
// # Deferred Queue
//
// Producers that do not hold the world (console readers, watchers, timers)
// submit lines with Submit. The owner of the world calls Flush once per tick
// to run everything submitted so far, oldest first.
//
// # Example
//
//	d := dispatcher.NewWithDefaults()
//	d.RegisterNoArgs("hello", func(ctx *execctx.ExecutionContext) error {
//	    ctx.Logger.Info().Msg("hello")
//	    return nil
//	})
//	res := d.Execute("hello", w)
//
// # Thread Safety
//
// The Table, Queue, Metrics and hook lists are safe for concurrent use.
// Execute and Flush must be called by the goroutine that owns the world.
package dispatcher
