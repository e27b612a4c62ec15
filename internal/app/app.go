// Package app wires the configuration, world, dispatcher, console and Lua
// scripts together and runs the host loop.
//
// The goroutine calling Run owns the world. Every command executes on it,
// either as a startup line or when the deferred queue is flushed on each
// tick. The console and the config watcher run on their own goroutines and
// only reach the world through the queue or a channel read by the loop.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/ecscli/internal/config"
	"github.com/dshills/ecscli/internal/config/watcher"
	"github.com/dshills/ecscli/internal/console"
	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/handlers/alias"
	"github.com/dshills/ecscli/internal/dispatcher/handlers/builtin"
	"github.com/dshills/ecscli/internal/dispatcher/handlers/sprite"
	"github.com/dshills/ecscli/internal/logging"
	"github.com/dshills/ecscli/internal/plugin/lua"
	"github.com/dshills/ecscli/internal/world"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. When set, the file
	// is watched and aliases are reloaded when it changes.
	ConfigPath string

	// LogLevel overrides the configured log level when not empty.
	LogLevel string

	// Debug forces debug logging.
	Debug bool

	// Input is the console input. Defaults to os.Stdin.
	Input io.Reader

	// Output receives command output. Defaults to os.Stdout.
	Output io.Writer

	// LogOutput receives log output instead of the configured destination.
	LogOutput io.Writer

	// Loader loads the configuration. Defaults to config.NewLoader().
	Loader *config.Loader
}

// Application is the host: it owns the world and runs every command.
type Application struct {
	opts Options

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer

	world      *world.World
	dispatcher *dispatcher.Dispatcher
	console    *console.Console
	aliases    *alias.Set
	lua        *lua.State
	cli        *lua.CLI
	watcher    *watcher.Watcher

	// lifecycle is held by Run for its whole duration.
	lifecycle sync.Mutex
	running   atomic.Bool
	closed    bool
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates an application and starts every component except the loop.
func New(opts Options) (*Application, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Loader == nil {
		opts.Loader = config.NewLoader()
	}

	app := &Application{
		opts:   opts,
		logger: zerolog.Nop(),
		done:   make(chan struct{}),
	}

	if err := app.bootstrap(); err != nil {
		app.release()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	cfg, err := app.opts.Loader.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	if app.opts.Debug {
		cfg.Log.Level = "debug"
	}
	app.cfg = cfg

	// 2. Logging
	if app.opts.LogOutput != nil {
		app.logger = logging.NewWithWriter(cfg.Log, app.opts.LogOutput)
	} else {
		l, closer, err := logging.New(cfg.Log)
		if err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		app.logger = l
		app.logCloser = closer
	}

	// 3. World
	app.world = world.New()
	world.SetResource(app.world, sprite.DefaultBounds)

	// 4. Dispatcher
	app.dispatcher = dispatcher.New(dispatcher.Config{
		EnableMetrics:    cfg.Dispatcher.EnableMetrics,
		RecoverFromPanic: cfg.Dispatcher.RecoverFromPanic,
		QueueCapacity:    cfg.Dispatcher.QueueCapacity,
	})
	app.dispatcher.SetLogger(logging.WithComponent(app.logger, "dispatcher"))
	app.dispatcher.RegisterPostHook(dispatcher.NewLoggingHook(logging.WithComponent(app.logger, "commands")))

	// 5. Console
	app.console = console.New(app.dispatcher, app.opts.Input, app.opts.Output,
		console.WithPrompt(cfg.App.Prompt),
		console.WithLogger(logging.WithComponent(app.logger, "console")),
	)
	out := app.console.Output()

	// 6. Commands
	app.aliases = alias.NewSet(app.dispatcher)
	builtin.NewHandler(app.dispatcher, app.aliases, out).Register()
	sprite.NewHandler(out, cfg.App.SpriteLifetime.Duration).Register(app.dispatcher)
	app.syncAliases(cfg)

	// 7. Lua scripts
	state, err := lua.NewState(
		lua.WithOutput(out),
		lua.WithLogger(logging.WithComponent(app.logger, "lua")),
	)
	if err != nil {
		return &InitError{Component: "lua", Err: err}
	}
	app.lua = state
	app.cli = lua.InstallCLI(state, app.dispatcher, app.world)
	if err := app.cli.LoadScripts(cfg.App.Scripts); err != nil {
		return &InitError{Component: "scripts", Err: err}
	}

	// 8. Config watcher
	if app.opts.ConfigPath != "" {
		app.startWatcher()
	}

	app.logger.Info().
		Int("commands", app.dispatcher.Table().Len()).
		Int("aliases", app.aliases.Len()).
		Strs("scripts", cfg.App.Scripts).
		Msg("application initialized")
	return nil
}

// startWatcher watches the config file. Failure only disables live reload.
func (app *Application) startWatcher() {
	w, err := watcher.New()
	if err != nil {
		app.logger.Warn().Err(err).Msg("config watcher unavailable; live reload disabled")
		return
	}
	if err := w.Watch(app.opts.ConfigPath); err != nil {
		app.logger.Warn().Err(err).Str("path", app.opts.ConfigPath).Msg("cannot watch config file; live reload disabled")
		w.Close()
		return
	}
	app.watcher = w
}

// Run executes the startup lines and then runs the loop until ctx is
// cancelled, Shutdown is called, or the console session ends. A session
// ended by the operator returns ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	app.lifecycle.Lock()
	defer app.lifecycle.Unlock()

	if app.closed {
		return ErrShutDown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	for _, line := range app.cfg.App.Startup {
		res := app.dispatcher.Execute(line, app.world)
		if err := res.Err(); err != nil {
			app.logger.Warn().Err(&OperationError{Op: "startup", Target: line, Err: err}).Msg("startup command failed")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	consoleErr := make(chan error, 1)
	go func() {
		consoleErr <- app.console.Run(ctx)
	}()

	err := app.loop(ctx)

	cancel()
	if cerr := <-consoleErr; cerr != nil && !errors.Is(cerr, context.Canceled) {
		err = cerr
	}

	// Lines submitted before the session ended still run.
	app.dispatcher.Flush(app.world)
	return err
}

// loop flushes the queue and expires sprites once per tick.
func (app *Application) loop(ctx context.Context) error {
	interval := app.cfg.App.TickInterval.Duration
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events <-chan watcher.Event
	var watchErrs <-chan error
	if app.watcher != nil {
		events = app.watcher.Events()
		watchErrs = app.watcher.Errors()
	}

	app.logger.Debug().Dur("tick", interval).Msg("entering main loop")

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.done:
			return nil

		case <-app.console.Done():
			if ctx.Err() != nil {
				return nil
			}
			return ErrQuit

		case now := <-ticker.C:
			app.tick(now)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			app.reload(ev)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			app.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// tick runs one frame of host work.
func (app *Application) tick(now time.Time) {
	app.dispatcher.Flush(app.world)
	if n := sprite.Expire(app.world, now); n > 0 {
		app.logger.Debug().Int("count", n).Msg("sprites expired")
	}
}

// reload re-reads the config file and re-applies its aliases. Other
// settings take effect on the next start.
func (app *Application) reload(ev watcher.Event) {
	log := app.logger.With().Str("path", ev.Path).Str("op", ev.Op.String()).Logger()

	cfg, err := app.opts.Loader.Load(app.opts.ConfigPath)
	if err != nil {
		log.Warn().Err(&OperationError{Op: "reload", Target: ev.Path, Err: err}).Msg("keeping previous configuration")
		return
	}

	defined, removed := app.syncAliases(cfg)
	app.cfg.Aliases = cfg.Aliases
	log.Info().Int("defined", defined).Int("removed", removed).Msg("configuration reloaded")
}

func (app *Application) syncAliases(cfg *config.Config) (defined, removed int) {
	defined, removed, err := app.aliases.Sync(cfg.Aliases)
	if err != nil {
		app.logger.Warn().Err(err).Msg("some aliases were not defined")
	}
	return defined, removed
}

// Shutdown stops the loop, waits for Run to return and releases resources.
// It is safe to call more than once and from any goroutine.
func (app *Application) Shutdown() {
	app.stopOnce.Do(func() {
		close(app.done)
	})

	app.lifecycle.Lock()
	defer app.lifecycle.Unlock()
	if app.closed {
		return
	}
	app.closed = true
	app.release()
}

// release closes components in reverse initialization order.
func (app *Application) release() {
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.lua != nil {
		app.lua.Close()
	}
	app.logger.Debug().Msg("application shut down")
	if app.logCloser != nil {
		app.logCloser.Close()
	}
}

// World returns the host world. Only the goroutine running the loop may use
// it while Run is active.
func (app *Application) World() *world.World {
	return app.world
}

// Dispatcher returns the command dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Aliases returns the alias set.
func (app *Application) Aliases() *alias.Set {
	return app.aliases
}

// Config returns the configuration the application started with.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}
