package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Log        LogConfig         `toml:"log" yaml:"log"`
	Dispatcher DispatcherConfig  `toml:"dispatcher" yaml:"dispatcher"`
	App        AppConfig         `toml:"app" yaml:"app"`
	Aliases    map[string]string `toml:"aliases" yaml:"aliases"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
	// Format is console or json.
	Format string `toml:"format" yaml:"format"`
	// File is the log file path. Empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// DispatcherConfig controls command dispatch.
type DispatcherConfig struct {
	RecoverFromPanic bool `toml:"recover_from_panic" yaml:"recover_from_panic"`
	EnableMetrics    bool `toml:"enable_metrics" yaml:"enable_metrics"`
	QueueCapacity    int  `toml:"queue_capacity" yaml:"queue_capacity"`
}

// AppConfig controls the host loop and console.
type AppConfig struct {
	// TickInterval is how often queued commands are flushed.
	TickInterval Duration `toml:"tick_interval" yaml:"tick_interval"`
	// Prompt is printed before each console line.
	Prompt string `toml:"prompt" yaml:"prompt"`
	// Startup lines run once, in order, before the console starts.
	Startup []string `toml:"startup" yaml:"startup"`
	// Scripts are Lua files loaded at startup.
	Scripts []string `toml:"scripts" yaml:"scripts"`
	// SpriteLifetime is how long spawned sprites live.
	SpriteLifetime Duration `toml:"sprite_lifetime" yaml:"sprite_lifetime"`
}

// Duration is a time.Duration written as a string such as "16ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Dispatcher: DispatcherConfig{
			RecoverFromPanic: true,
			EnableMetrics:    true,
			QueueCapacity:    1024,
		},
		App: AppConfig{
			TickInterval:   Duration{16 * time.Millisecond},
			Prompt:         "> ",
			SpriteLifetime: Duration{5 * time.Second},
		},
		Aliases: make(map[string]string),
	}
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"console": true, "json": true}
)

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error

	if !validLevels[c.Log.Level] {
		errs = append(errs, &ValidationError{Path: "log.level", Message: "must be debug, info, warn or error", Value: c.Log.Level})
	}
	if !validFormats[c.Log.Format] {
		errs = append(errs, &ValidationError{Path: "log.format", Message: "must be console or json", Value: c.Log.Format})
	}
	if c.Dispatcher.QueueCapacity < 0 {
		errs = append(errs, &ValidationError{Path: "dispatcher.queue_capacity", Message: "must not be negative", Value: c.Dispatcher.QueueCapacity})
	}
	if c.App.TickInterval.Duration <= 0 {
		errs = append(errs, &ValidationError{Path: "app.tick_interval", Message: "must be positive", Value: c.App.TickInterval.Duration})
	}
	if c.App.SpriteLifetime.Duration <= 0 {
		errs = append(errs, &ValidationError{Path: "app.sprite_lifetime", Message: "must be positive", Value: c.App.SpriteLifetime.Duration})
	}
	for name, target := range c.Aliases {
		if name == "" || target == "" {
			errs = append(errs, &ValidationError{Path: fmt.Sprintf("aliases.%s", name), Message: "name and target must not be empty", Value: target})
		}
	}

	return errors.Join(errs...)
}
