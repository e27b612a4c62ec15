package dispatcher

import (
	"fmt"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/dispatcher/handler"
	"github.com/dshills/ecscli/internal/world"
)

// Dispatcher owns the command table and executes command lines against a
// world. Execute must only be called by the holder of exclusive access to
// the world; other producers use Submit and wait for the next Flush.
type Dispatcher struct {
	mu sync.RWMutex

	table *Table
	queue *Queue

	config  Config
	metrics *Metrics
	logger  zerolog.Logger

	preHooks  []PreExecuteHook
	postHooks []PostExecuteHook

	depth atomic.Int32
}

// New creates a new dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	d := &Dispatcher{
		table:  NewTable(),
		queue:  NewQueue(config.QueueCapacity),
		config: config,
		logger: zerolog.Nop(),
	}

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}

	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// SetLogger sets the logger used to report command outcomes.
func (d *Dispatcher) SetLogger(l zerolog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

// Logger returns the dispatcher's logger.
func (d *Dispatcher) Logger() zerolog.Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.logger
}

// Execute parses and runs a single command line.
//
// Blank lines report ErrEmptyInput and unknown names ErrCommandNotFound; no
// handler runs in either case. Otherwise the selected handler is checked out
// of the table, invoked, its deferred work is applied to w, and it is put
// back, whether or not it failed.
func (d *Dispatcher) Execute(line string, w *world.World) handler.Result {
	parsed := ParseLine(line)
	depth := int(d.depth.Load())
	result := d.execute(parsed, w)
	result.Depth = depth

	d.runPostHooks(parsed, &result)

	if d.metrics != nil {
		d.metrics.RecordResult(result)
	}
	return result
}

func (d *Dispatcher) execute(line Line, w *world.World) handler.Result {
	log := d.Logger()

	if line.Empty() {
		log.Warn().Msg("attempted to run empty command line")
		return handler.Result{Status: handler.StatusEmptyInput, Error: ErrEmptyInput}
	}

	result := handler.Result{Command: line.Name, Args: line.Args}

	hasNoArgs, hasArgs := d.table.variants(line.Name)
	kind, discard, ok := selectVariant(hasNoArgs, hasArgs, line.HasArgs())
	if !ok {
		return d.notFound(log, result)
	}

	if discard {
		result.Warning = &CommandError{Command: line.Name, Err: ErrArgumentsUnsupported}
		log.Warn().
			Str("command", line.Name).
			Strs("args", line.Args).
			Msg("command does not accept arguments; discarding them")
	}

	if !d.runPreHooks(&line, kind) {
		result.Status = handler.StatusCancelled
		result.Error = &CommandError{Command: line.Name, Err: ErrCancelled}
		log.Debug().Str("command", line.Name).Msg("command cancelled by hook")
		return result
	}

	co, ok := d.table.Take(line.Name, kind)
	if !ok {
		return d.notFound(log, result)
	}
	return d.invoke(co, line, w, result)
}

func (d *Dispatcher) notFound(log zerolog.Logger, result handler.Result) handler.Result {
	result.Status = handler.StatusNotFound
	result.Error = &CommandError{Command: result.Command, Err: ErrCommandNotFound}
	log.Error().Str("command", result.Command).Msg("command not found")
	return result
}

// selectVariant picks the handler variant for a call. Arguments go to the
// argument-list variant when there is one and are discarded otherwise; a
// call without arguments prefers the no-argument variant and falls back to
// the argument-list variant with an empty list.
func selectVariant(hasNoArgs, hasArgs, argsGiven bool) (kind handler.Kind, discard bool, ok bool) {
	switch {
	case argsGiven && hasArgs:
		return handler.KindArgs, false, true
	case argsGiven && hasNoArgs:
		return handler.KindNoArgs, true, true
	case hasNoArgs:
		return handler.KindNoArgs, false, true
	case hasArgs:
		return handler.KindArgs, false, true
	default:
		return 0, false, false
	}
}

// invoke runs a checked-out handler and always puts it back.
func (d *Dispatcher) invoke(co Checkout, line Line, w *world.World, result handler.Result) handler.Result {
	kind := co.Kind()

	var args []string
	if kind == handler.KindArgs {
		args = line.Args
		if args == nil {
			args = []string{}
		}
	}

	depth := int(d.depth.Add(1)) - 1
	id := uuid.New().String()
	log := d.Logger().With().
		Str("command", line.Name).
		Str("variant", kind.String()).
		Str("invocation", id).
		Int("depth", depth).
		Logger()

	defer func() {
		d.depth.Add(-1)
		if !d.table.PutBack(co) {
			log.Debug().Msg("handler was replaced while running; keeping the newer registration")
		}
	}()

	ctx := execctx.New().
		WithWorld(w).
		WithRunner(d.runner()).
		WithCommand(line.Name, args).
		WithLogger(log)
	ctx.InvocationID = id
	ctx.Depth = depth

	if err := ctx.Validate(); err != nil {
		result.Status = handler.StatusError
		result.Error = &HandlerError{Command: line.Name, Kind: kind, Cause: err}
		log.Error().Err(err).Msg("cannot run command")
		return result
	}

	if len(args) > 0 {
		log.Debug().Strs("args", args).Msg("running command")
	} else {
		log.Debug().Msg("running command")
	}

	start := time.Now()
	err := d.call(ctx.Command, func() error {
		return co.Handler().Invoke(ctx, args)
	})
	applyErr := d.call(ctx.Command, func() error {
		return ctx.Commands().Apply(w)
	})
	if applyErr != nil {
		if err == nil {
			err = applyErr
		} else {
			err = fmt.Errorf("%w; deferred: %w", err, applyErr)
		}
	}

	result.Invoked = true
	result.Kind = kind
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = handler.StatusError
		result.Error = &HandlerError{Command: line.Name, Kind: kind, Cause: err}
		log.Error().Err(err).Msg("command failed")
		return result
	}

	result.Status = handler.StatusOK
	return result
}

// call runs fn, which is either the handler or its deferred work, converting
// a panic into an error when panic recovery is enabled.
func (d *Dispatcher) call(command string, fn func() error) (err error) {
	if d.config.RecoverFromPanic {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)

				err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, stack[:n])

				if d.metrics != nil {
					d.metrics.RecordPanic(command)
				}
			}
		}()
	}

	return fn()
}

// runner adapts Execute for handlers that re-enter the dispatcher.
func (d *Dispatcher) runner() execctx.Runner {
	return execctx.RunnerFunc(func(line string, w *world.World) error {
		return d.Execute(line, w).Err()
	})
}

// Submit queues a line for the next Flush. It is safe to call from any
// goroutine.
func (d *Dispatcher) Submit(line string) (string, error) {
	id, err := d.queue.Submit(line)
	if err != nil {
		log := d.Logger()
		log.Warn().Str("line", line).Err(err).Msg("dropping deferred command")
		return "", err
	}
	return id, nil
}

// Flush executes every line queued before the call, in submission order.
// Lines submitted while flushing wait for the next Flush.
func (d *Dispatcher) Flush(w *world.World) []handler.Result {
	batch := d.queue.take()
	if len(batch) == 0 {
		return nil
	}

	log := d.Logger()
	results := make([]handler.Result, 0, len(batch))
	for _, p := range batch {
		log.Debug().
			Str("queued", p.ID).
			Dur("waited", time.Since(p.Submitted)).
			Msg("running deferred command")
		results = append(results, d.Execute(p.Line, w))
	}
	return results
}

// Register inserts or replaces one variant of a command.
func (d *Dispatcher) Register(name string, h *handler.Handler) {
	d.table.Register(name, h)
}

// RegisterNoArgs registers the no-argument variant of a command.
func (d *Dispatcher) RegisterNoArgs(name string, fn handler.NoArgsFunc) {
	d.table.Register(name, handler.NoArgs(fn))
}

// RegisterArgs registers the argument-list variant of a command.
func (d *Dispatcher) RegisterArgs(name string, fn handler.ArgsFunc) {
	d.table.Register(name, handler.Args(fn))
}

// Deregister removes one variant of a command.
func (d *Dispatcher) Deregister(name string, kind handler.Kind) {
	d.table.Deregister(name, kind)
}

// Unregister removes a command entirely.
func (d *Dispatcher) Unregister(name string) {
	d.table.Unregister(name)
}

// Rename moves a command to a new name; see Table.Rename.
func (d *Dispatcher) Rename(oldName, newName string) error {
	return d.table.Rename(oldName, newName)
}

// Exists reports whether a command can currently be invoked.
func (d *Dispatcher) Exists(name string) bool {
	return d.table.Exists(name)
}

// Names yields the names of all available commands in sorted order.
func (d *Dispatcher) Names() iter.Seq[string] {
	return d.table.Names()
}

// RegisterPreHook registers a pre-execute hook.
func (d *Dispatcher) RegisterPreHook(hook PreExecuteHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-execute hook.
func (d *Dispatcher) RegisterPostHook(hook PostExecuteHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// runPreHooks runs all pre-execute hooks.
// Returns false if any hook cancels the call. Hooks may change the
// arguments but not the command name.
func (d *Dispatcher) runPreHooks(line *Line, kind handler.Kind) bool {
	d.mu.RLock()
	hooks := make([]PreExecuteHook, len(d.preHooks))
	copy(hooks, d.preHooks)
	d.mu.RUnlock()

	name := line.Name
	for _, h := range hooks {
		if !h.PreExecute(line, kind) {
			line.Name = name
			return false
		}
	}
	line.Name = name
	return true
}

// runPostHooks runs all post-execute hooks.
func (d *Dispatcher) runPostHooks(line Line, result *handler.Result) {
	d.mu.RLock()
	hooks := make([]PostExecuteHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostExecute(line, result)
	}
}

// Table returns the command table.
func (d *Dispatcher) Table() *Table {
	return d.table
}

// Queue returns the deferred command queue.
func (d *Dispatcher) Queue() *Queue {
	return d.queue
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
