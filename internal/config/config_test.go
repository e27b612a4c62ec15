package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	fsys := fstest.MapFS{
		"ecscli.toml": &fstest.MapFile{Data: []byte(`
[log]
level = "debug"

[dispatcher]
queue_capacity = 8

[app]
tick_interval = "50ms"
startup = ["hello world", "spawn 1 2"]

[aliases]
hi = "echo hi"
`)},
	}

	cfg, err := NewLoaderWithFS(fsys, NewEnvLoaderWithLookup(EnvPrefix, noEnv)).Load("ecscli.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("unset settings should keep defaults, Log.Format = %q", cfg.Log.Format)
	}
	if cfg.Dispatcher.QueueCapacity != 8 || !cfg.Dispatcher.RecoverFromPanic {
		t.Errorf("Dispatcher = %+v", cfg.Dispatcher)
	}
	if cfg.App.TickInterval.Duration != 50*time.Millisecond {
		t.Errorf("TickInterval = %v", cfg.App.TickInterval)
	}
	if len(cfg.App.Startup) != 2 || cfg.App.Startup[1] != "spawn 1 2" {
		t.Errorf("Startup = %v", cfg.App.Startup)
	}
	if cfg.Aliases["hi"] != "echo hi" {
		t.Errorf("Aliases = %v", cfg.Aliases)
	}
}

func TestLoadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"ecscli.yaml": &fstest.MapFile{Data: []byte(`
log:
  format: json
app:
  sprite_lifetime: 2s
  scripts:
    - a.lua
aliases:
  go: spawn 10 10
`)},
	}

	cfg, err := NewLoaderWithFS(fsys, nil).Load("ecscli.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.App.SpriteLifetime.Duration != 2*time.Second {
		t.Errorf("SpriteLifetime = %v", cfg.App.SpriteLifetime)
	}
	if len(cfg.App.Scripts) != 1 || cfg.Aliases["go"] != "spawn 10 10" {
		t.Errorf("App = %+v, Aliases = %v", cfg.App, cfg.Aliases)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := NewLoaderWithFS(fstest.MapFS{}, nil).Load("missing.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "info" || cfg.Aliases == nil {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadParseError(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.toml": &fstest.MapFile{Data: []byte("[log]\nlevel = \n")},
		"bad.yml":  &fstest.MapFile{Data: []byte("log: [unclosed\n")},
	}
	l := NewLoaderWithFS(fsys, nil)

	for _, path := range []string{"bad.toml", "bad.yml"} {
		_, err := l.Load(path)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Load(%s) error = %v, want *ParseError", path, err)
		}
		if pe.Path != path {
			t.Errorf("ParseError.Path = %q", pe.Path)
		}
	}

	_, err := l.Load("bad.toml")
	var pe *ParseError
	errors.As(err, &pe)
	if pe.Line == 0 {
		t.Error("expected a line number for TOML errors")
	}
}

func TestLoadValidation(t *testing.T) {
	fsys := fstest.MapFS{
		"c.toml": &fstest.MapFile{Data: []byte(`
[log]
level = "loud"
[dispatcher]
queue_capacity = -1
`)},
	}

	_, err := NewLoaderWithFS(fsys, nil).Load("c.toml")
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "log.level") || !strings.Contains(msg, "dispatcher.queue_capacity") {
		t.Errorf("error should list every failure: %v", msg)
	}
}

func TestEnvOverlay(t *testing.T) {
	env := map[string]string{
		"ECSCLI_LOG_LEVEL":      "warn",
		"ECSCLI_LOG_FILE":       "/tmp/ecscli.log",
		"ECSCLI_QUEUE_CAPACITY": "16",
		"ECSCLI_TICK_INTERVAL":  "1s",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	fsys := fstest.MapFS{
		"c.toml": &fstest.MapFile{Data: []byte("[log]\nlevel = \"debug\"\n")},
	}
	cfg, err := NewLoaderWithFS(fsys, NewEnvLoaderWithLookup(EnvPrefix, lookup)).Load("c.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("env should override file, Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.File != "/tmp/ecscli.log" || cfg.Dispatcher.QueueCapacity != 16 || cfg.App.TickInterval.Duration != time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvOverlayBadValue(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "ECSCLI_QUEUE_CAPACITY" {
			return "lots", true
		}
		return "", false
	}

	_, err := NewLoaderWithFS(fstest.MapFS{}, NewEnvLoaderWithLookup(EnvPrefix, lookup)).Load("")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != "ECSCLI_QUEUE_CAPACITY" {
		t.Errorf("expected ParseError for the variable, got %v", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecscli.toml")
	if err := os.WriteFile(path, []byte("[app]\nprompt = \"$ \"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoaderWithFS(osFS{}, NewEnvLoaderWithLookup(EnvPrefix, noEnv))
	cfg, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Prompt != "$ " {
		t.Errorf("Prompt = %q", cfg.App.Prompt)
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"a.toml": FormatTOML,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatTOML,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDecodeUnsupported(t *testing.T) {
	err := Decode("x", Format("ini"), nil, Default())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
