package config

import (
	"os"
	"strconv"
	"time"
)

// EnvPrefix is the prefix of every environment variable the loader reads.
const EnvPrefix = "ECSCLI_"

// EnvLoader overlays environment variables onto a configuration.
type EnvLoader struct {
	prefix  string // Environment variable prefix (e.g., "ECSCLI_")
	lookup  func(string) (string, bool)
	mapping map[string]func(*Config, string) error
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "ECSCLI_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithLookup(prefix, os.LookupEnv)
}

// NewEnvLoaderWithLookup creates a loader that reads variables through lookup.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		lookup:  lookup,
		mapping: defaultEnvMapping(),
	}
}

// defaultEnvMapping returns the setters for each supported variable, keyed
// by the name without prefix.
func defaultEnvMapping() map[string]func(*Config, string) error {
	return map[string]func(*Config, string) error{
		"LOG_LEVEL": func(c *Config, v string) error {
			c.Log.Level = v
			return nil
		},
		"LOG_FORMAT": func(c *Config, v string) error {
			c.Log.Format = v
			return nil
		},
		"LOG_FILE": func(c *Config, v string) error {
			c.Log.File = v
			return nil
		},
		"QUEUE_CAPACITY": func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			c.Dispatcher.QueueCapacity = n
			return nil
		},
		"TICK_INTERVAL": func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			c.App.TickInterval = Duration{d}
			return nil
		},
	}
}

// Apply sets every mapped variable that is present. Empty values are
// treated as set.
func (l *EnvLoader) Apply(cfg *Config) error {
	for name, set := range l.mapping {
		env := l.prefix + name
		val, ok := l.lookup(env)
		if !ok {
			continue
		}
		if err := set(cfg, val); err != nil {
			return &ParseError{Path: env, Message: err.Error(), Err: err}
		}
	}
	return nil
}

// Variables returns the full names of the supported variables.
func (l *EnvLoader) Variables() []string {
	names := make([]string, 0, len(l.mapping))
	for name := range l.mapping {
		names = append(names, l.prefix+name)
	}
	return names
}
