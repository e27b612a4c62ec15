// Package console reads command lines from the operator and hands them to
// the dispatcher's deferred queue.
//
// The console never executes commands itself. It runs on its own goroutine
// without access to the world, so every line is submitted and runs on the
// next flush. Outcomes are reported back through a post-execute hook.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

// Session-ending input words.
const (
	CmdQuit = "quit"
	CmdExit = "exit"
)

// DefaultPrompt is shown before each line on an interactive terminal.
const DefaultPrompt = "> "

// Console is a line-oriented operator console.
type Console struct {
	d      *dispatcher.Dispatcher
	in     io.Reader
	logger zerolog.Logger
	prompt string

	mu  sync.Mutex
	out io.Writer

	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a Console.
type Option func(*Console)

// WithPrompt sets the interactive prompt.
func WithPrompt(p string) Option {
	return func(c *Console) {
		c.prompt = p
	}
}

// WithLogger sets the console logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Console) {
		c.logger = l
	}
}

// New creates a console reading from in and reporting to out.
func New(d *dispatcher.Dispatcher, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		d:      d,
		in:     in,
		out:    out,
		logger: zerolog.Nop(),
		prompt: DefaultPrompt,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	d.RegisterPostHook(c)
	return c
}

// Done is closed when the session ends.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

// Output returns the writer command output should go to. On an interactive
// terminal it redraws the prompt after each write.
func (c *Console) Output() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.out.Write(p)
	})
}

// Run reads lines until EOF, a quit word, or ctx is cancelled. Each line is
// submitted to the dispatcher queue. EOF and quit return nil.
func (c *Console) Run(ctx context.Context) error {
	defer c.finish()

	read, restore, err := c.lineReader()
	if err != nil {
		return err
	}
	defer restore()

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := read()
			if err != nil {
				errs <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					if errors.Is(err, io.EOF) {
						c.logger.Debug().Msg("console input closed")
						return nil
					}
					return fmt.Errorf("console: read: %w", err)
				default:
					return ctx.Err()
				}
			}
			if !c.handle(line) {
				return nil
			}
		}
	}
}

// handle submits one line. It returns false when the line ends the session.
func (c *Console) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "":
		return true
	case CmdQuit, CmdExit:
		c.logger.Info().Msg("console session ended")
		return false
	}

	if _, err := c.d.Submit(trimmed); err != nil {
		c.printf("error: %v\n", err)
	}
	return true
}

// PostExecute reports warnings and failures to the operator. Nested calls
// are skipped; their failures reach the operator through the outer result.
func (c *Console) PostExecute(line dispatcher.Line, result *handler.Result) {
	if result.Depth > 0 {
		return
	}
	if result.Warning != nil {
		c.printf("warning: %v\n", result.Warning)
	}
	switch result.Status {
	case handler.StatusOK, handler.StatusEmptyInput:
	default:
		if result.Error != nil {
			c.printf("error: %v\n", result.Error)
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) finish() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// lineReader returns a function reading one line at a time. When the input
// is a terminal it is put into raw mode and read through term.Terminal, and
// restore puts it back.
func (c *Console) lineReader() (read func() (string, error), restore func(), err error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return nil, nil, fmt.Errorf("console: raw mode: %w", err)
		}

		t := term.NewTerminal(readWriter{Reader: f, Writer: c.out}, c.prompt)
		c.mu.Lock()
		c.out = t
		c.mu.Unlock()

		restore = func() {
			_ = term.Restore(int(f.Fd()), state)
		}
		return t.ReadLine, restore, nil
	}

	scanner := bufio.NewScanner(c.in)
	read = func() (string, error) {
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return read, func() {}, nil
}

type readWriter struct {
	io.Reader
	io.Writer
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}
