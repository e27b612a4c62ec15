package dispatcher

import (
	"iter"
	"sort"
	"sync"

	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

// Table maps command names to their no-argument and argument-list handlers.
//
// A handler taken out of the table for invocation leaves its slot checked
// out: the slot reads as empty to Lookup, Has, Exists and Names until the
// handler is put back. The lock is held only for the duration of each table
// operation, never across a handler call, so handlers may freely mutate the
// table that is running them.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	name  string
	slots [len(handler.Kinds)]slot
	out   int // checked-out slots
}

type slot struct {
	h   *handler.Handler
	out bool
}

// available reports whether the slot holds a handler that can be invoked.
// A handler registered while the slot is checked out stays hidden until the
// running handler is put back.
func (s slot) available() bool {
	return s.h != nil && !s.out
}

func (e *entry) available() bool {
	for _, s := range e.slots {
		if s.available() {
			return true
		}
	}
	return false
}

// removable reports whether the entry holds nothing and anchors no checkout.
func (e *entry) removable() bool {
	if e.out > 0 {
		return false
	}
	for _, s := range e.slots {
		if s.h != nil {
			return false
		}
	}
	return true
}

// Checkout is a handler taken out of the table for invocation. It must be
// returned with PutBack.
type Checkout struct {
	entry   *entry
	kind    handler.Kind
	handler *handler.Handler
}

// Kind returns the variant that was taken.
func (c Checkout) Kind() handler.Kind {
	return c.kind
}

// Handler returns the taken handler.
func (c Checkout) Handler() *handler.Handler {
	return c.handler
}

// NewTable creates an empty command table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]*entry),
	}
}

// Register inserts or replaces the handler for the handler's variant of name.
// The other variant, if present, is untouched. A nil handler is ignored.
func (t *Table) Register(name string, h *handler.Handler) {
	if h == nil || !h.Kind().Valid() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[name]
	if e == nil {
		e = &entry{name: name}
		t.entries[name] = e
	}
	e.slots[h.Kind()].h = h
}

// Deregister removes one variant of a command. The command is removed once
// neither variant remains. Missing commands and variants are ignored.
func (t *Table) Deregister(name string, kind handler.Kind) {
	if !kind.Valid() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[name]
	if e == nil {
		return
	}
	e.slots[kind].h = nil
	if e.removable() {
		delete(t.entries, name)
	}
}

// Unregister removes every variant of a command.
func (t *Table) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[name]
	if e == nil {
		return
	}
	for i := range e.slots {
		e.slots[i].h = nil
	}
	if e.removable() {
		delete(t.entries, name)
	}
}

// Lookup returns the handler registered for a variant of name.
func (t *Table) Lookup(name string, kind handler.Kind) (*handler.Handler, bool) {
	if !kind.Valid() {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e := t.entries[name]
	if e == nil || !e.slots[kind].available() {
		return nil, false
	}
	return e.slots[kind].h, true
}

// Has reports whether a variant of name is registered and available.
func (t *Table) Has(name string, kind handler.Kind) bool {
	_, ok := t.Lookup(name, kind)
	return ok
}

// Exists reports whether any variant of name is registered and available.
func (t *Table) Exists(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e := t.entries[name]
	return e != nil && e.available()
}

// variants reports which variants of name are available.
func (t *Table) variants(name string) (noargs, args bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e := t.entries[name]
	if e == nil {
		return false, false
	}
	return e.slots[handler.KindNoArgs].available(), e.slots[handler.KindArgs].available()
}

// Take removes a handler for invocation, leaving its slot checked out.
func (t *Table) Take(name string, kind handler.Kind) (Checkout, bool) {
	if !kind.Valid() {
		return Checkout{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[name]
	if e == nil || !e.slots[kind].available() {
		return Checkout{}, false
	}

	co := Checkout{entry: e, kind: kind, handler: e.slots[kind].h}
	e.slots[kind] = slot{out: true}
	e.out++
	return co, true
}

// PutBack restores a checked-out handler under the command's current name.
//
// The entry is re-created if the command was deregistered or renamed away
// while checked out. If the slot was registered again during the checkout,
// the newer handler is kept and PutBack returns false.
func (t *Table) PutBack(co Checkout) bool {
	e := co.entry
	if e == nil || co.handler == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := &e.slots[co.kind]
	if s.out {
		s.out = false
		e.out--
	}

	restored := false
	if s.h == nil {
		s.h = co.handler
		restored = true
	}

	if cur, ok := t.entries[e.name]; !ok {
		t.entries[e.name] = e
	} else if cur != e {
		// The name was reused by a different entry; merge into it.
		if cur.slots[co.kind].h == nil {
			cur.slots[co.kind].h = co.handler
		} else if restored {
			restored = false
		}
		s.h = nil
	}
	return restored
}

// Rename moves a command to a new name. It fails with ErrNameConflict if
// newName is in use, including by a command whose only handler is
// currently running, and with ErrCommandNotFound if oldName has no
// available variant. On failure the table is unchanged.
func (t *Table) Rename(oldName, newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[oldName]
	if e == nil || !e.available() {
		return &RenameError{OldName: oldName, NewName: newName, Err: ErrCommandNotFound}
	}
	if oldName == newName {
		return nil
	}
	if _, taken := t.entries[newName]; taken {
		return &RenameError{OldName: oldName, NewName: newName, Err: ErrNameConflict}
	}

	delete(t.entries, oldName)
	e.name = newName
	t.entries[newName] = e
	return nil
}

// Names yields the names of all available commands in sorted order. The
// sequence iterates over a snapshot and may be consumed while the table is
// being modified.
func (t *Table) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range t.List() {
			if !yield(name) {
				return
			}
		}
	}
}

// List returns the sorted names of all available commands.
func (t *Table) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.entries))
	for name, e := range t.entries {
		if e.available() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of available commands.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, e := range t.entries {
		if e.available() {
			n++
		}
	}
	return n
}

// Clear removes all commands. Handlers that are checked out are put back
// when they return, so the table then holds only those.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		for i := range e.slots {
			e.slots[i].h = nil
		}
	}
	t.entries = make(map[string]*entry)
}
