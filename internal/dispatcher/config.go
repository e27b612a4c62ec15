package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// EnableMetrics enables per-command timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic turns a handler panic into a handler failure.
	RecoverFromPanic bool

	// QueueCapacity limits the number of pending deferred lines.
	// Zero means no limit.
	QueueCapacity int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics:    false,
		RecoverFromPanic: true,
		QueueCapacity:    1024,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithQueueCapacity returns a copy of the config with the queue capacity set.
func (c Config) WithQueueCapacity(n int) Config {
	if n >= 0 {
		c.QueueCapacity = n
	}
	return c
}
