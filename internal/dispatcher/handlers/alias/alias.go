// Package alias provides commands that expand to another command line.
package alias

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/execctx"
)

// Alias errors.
var (
	// ErrEmptyName indicates an alias without a name.
	ErrEmptyName = errors.New("alias: name is empty")

	// ErrEmptyTarget indicates an alias that expands to nothing.
	ErrEmptyTarget = errors.New("alias: target is empty")

	// ErrNotAlias indicates the name is not a defined alias.
	ErrNotAlias = errors.New("alias: not an alias")
)

// Register registers both variants of name so that it runs target. Arguments
// given to the alias are appended to the target line. An alias that reaches
// itself, directly or through other aliases, fails with not found instead of
// recursing, because the running alias is checked out.
func Register(d *dispatcher.Dispatcher, name, target string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if dispatcher.ParseLine(target).Empty() {
		return ErrEmptyTarget
	}

	d.RegisterNoArgs(name, func(ctx *execctx.ExecutionContext) error {
		return run(ctx, target)
	})
	d.RegisterArgs(name, func(ctx *execctx.ExecutionContext, args []string) error {
		if len(args) == 0 {
			return run(ctx, target)
		}
		return run(ctx, target+" "+strings.Join(args, " "))
	})
	return nil
}

func run(ctx *execctx.ExecutionContext, line string) error {
	if err := ctx.Run(line); err != nil {
		return fmt.Errorf("alias %q: %w", ctx.Command, err)
	}
	return nil
}

// Set tracks aliases registered on a dispatcher so they can be listed,
// removed and synchronized with configuration.
type Set struct {
	mu   sync.RWMutex
	d    *dispatcher.Dispatcher
	defs map[string]string
}

// NewSet creates an empty alias set for d.
func NewSet(d *dispatcher.Dispatcher) *Set {
	return &Set{
		d:    d,
		defs: make(map[string]string),
	}
}

// Define registers name as an alias for target, replacing any command or
// alias of that name.
func (s *Set) Define(name, target string) error {
	if err := Register(s.d, name, target); err != nil {
		return err
	}

	s.mu.Lock()
	s.defs[name] = target
	s.mu.Unlock()
	return nil
}

// Remove unregisters an alias. Names that are not aliases are left alone.
func (s *Set) Remove(name string) error {
	s.mu.Lock()
	_, ok := s.defs[name]
	delete(s.defs, name)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrNotAlias, name)
	}
	s.d.Unregister(name)
	return nil
}

// Rename renames a command on the dispatcher. When the command is an alias
// its definition moves to the new name.
func (s *Set) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.d.Rename(oldName, newName); err != nil {
		return err
	}
	if target, ok := s.defs[oldName]; ok {
		delete(s.defs, oldName)
		s.defs[newName] = target
	}
	return nil
}

// Target returns the line an alias expands to.
func (s *Set) Target(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.defs[name]
	return t, ok
}

// Names returns the sorted alias names.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.defs))
	for n := range s.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of aliases.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.defs)
}

// Sync makes the set match defs: new and changed aliases are defined and
// aliases missing from defs are removed. An unchanged alias whose command is
// no longer registered is defined again. Invalid definitions are skipped and
// reported in the joined error.
func (s *Set) Sync(defs map[string]string) (defined, removed int, err error) {
	var errs []error

	for _, name := range s.Names() {
		if _, keep := defs[name]; !keep {
			if s.Remove(name) == nil {
				removed++
			}
		}
	}

	names := make([]string, 0, len(defs))
	for n := range defs {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		target := defs[name]
		if cur, ok := s.Target(name); ok && cur == target && s.d.Exists(name) {
			continue
		}
		if e := s.Define(name, target); e != nil {
			errs = append(errs, fmt.Errorf("alias %q: %w", name, e))
			continue
		}
		defined++
	}
	return defined, removed, errors.Join(errs...)
}
