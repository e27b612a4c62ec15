package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format implied by a file extension. Unknown
// extensions are read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Loader reads configuration files and applies the environment overlay.
type Loader struct {
	fs  fs.ReadFileFS
	env *EnvLoader
}

// NewLoader creates a loader that reads from the OS file system and the
// ECSCLI_ environment variables.
func NewLoader() *Loader {
	return &Loader{
		fs:  osFS{},
		env: NewEnvLoader(EnvPrefix),
	}
}

// NewLoaderWithFS creates a loader with a custom file system and env loader.
// A nil fsys reads from the OS file system and a nil env skips the overlay.
func NewLoaderWithFS(fsys fs.ReadFileFS, env *EnvLoader) *Loader {
	if fsys == nil {
		fsys = osFS{}
	}
	return &Loader{fs: fsys, env: env}
}

// Load reads path on top of the defaults, applies the environment and
// validates the result. A missing file is not an error; an empty path skips
// the file entirely.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := l.fs.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := Decode(path, FormatFor(path), data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if l.env != nil {
		if err := l.env.Apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Aliases == nil {
		cfg.Aliases = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a configuration file using the default loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Decode parses data in the given format into cfg. Settings absent from data
// keep their current values.
func Decode(source string, format Format, data []byte, cfg *Config) error {
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			pe := &ParseError{Path: source, Message: err.Error(), Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				pe.Line, pe.Column = de.Position()
			}
			return pe
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: source, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return nil
}

// osFS implements fs.ReadFileFS using the real OS file system. Paths are
// used as given rather than rooted.
type osFS struct{}

// Open implements fs.FS.
func (osFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
