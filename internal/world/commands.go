package world

import "errors"

// Command is a deferred world mutation.
type Command func(w *World) error

// Commands buffers world mutations recorded by code that does not hold
// exclusive access. Apply runs them in submission order.
type Commands struct {
	queue []Command
}

// NewCommands creates an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Push appends a mutation.
func (c *Commands) Push(cmd Command) {
	if cmd == nil {
		return
	}
	c.queue = append(c.queue, cmd)
}

// Spawn defers the creation of an entity. The optional init function runs
// against the new entity once it exists, typically to insert components.
func (c *Commands) Spawn(init func(w *World, e Entity)) {
	c.Push(func(w *World) error {
		e := w.Spawn()
		if init != nil {
			init(w, e)
		}
		return nil
	})
}

// Despawn defers the removal of an entity. Despawning an entity that no
// longer exists is not an error.
func (c *Commands) Despawn(e Entity) {
	c.Push(func(w *World) error {
		w.Despawn(e)
		return nil
	})
}

// Len returns the number of pending mutations.
func (c *Commands) Len() int {
	return len(c.queue)
}

// Apply runs every pending mutation in order and empties the buffer.
// Mutations pushed while applying are run in the same pass, after the ones
// already queued. All mutations run even if some fail; the failures are
// joined into the returned error.
func (c *Commands) Apply(w *World) error {
	var errs []error
	for len(c.queue) > 0 {
		cmd := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		if err := cmd(w); err != nil {
			errs = append(errs, err)
		}
	}
	c.queue = nil
	return errors.Join(errs...)
}
