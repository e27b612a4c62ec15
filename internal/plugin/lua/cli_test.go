package lua

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/world"
)

func setupCLI(t *testing.T) (*CLI, *dispatcher.Dispatcher, *world.World, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	state, err := NewState(WithOutput(&out))
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { state.Close() })

	d := dispatcher.NewWithDefaults()
	w := world.New()
	return InstallCLI(state, d, w), d, w, &out
}

func TestCLIRegisterArgs(t *testing.T) {
	c, d, w, out := setupCLI(t)

	err := c.state.DoString(`
		cli.register("greet", function(args)
			print("hello " .. table.concat(args, ","))
		end)
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if !d.Exists("greet") {
		t.Fatal("greet should be registered")
	}

	if res := d.Execute("greet a b", w); !res.IsOK() {
		t.Fatalf("unexpected error %v", res.Err())
	}
	if res := d.Execute("greet", w); !res.IsOK() {
		t.Fatalf("unexpected error %v", res.Err())
	}
	if out.String() != "hello a,b\nhello \n" {
		t.Errorf("output = %q", out.String())
	}
	if !slices.Equal(c.Registered(), []string{"greet"}) {
		t.Errorf("Registered = %v", c.Registered())
	}
}

func TestCLIRegisterNoArgs(t *testing.T) {
	c, d, w, out := setupCLI(t)

	c.state.DoString(`cli.register_noargs("ping", function() print("pong") end)`)

	res := d.Execute("ping extra", w)
	if !res.IsOK() || !errors.Is(res.Warning, dispatcher.ErrArgumentsUnsupported) {
		t.Errorf("result = %v / %v", res.Err(), res.Warning)
	}
	if out.String() != "pong\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCLICommandFailure(t *testing.T) {
	c, d, w, _ := setupCLI(t)

	c.state.DoString(`
		cli.register_noargs("raise", function() error("broken") end)
		cli.register_noargs("refuse", function() return false, "not today" end)
	`)

	res := d.Execute("raise", w)
	if !errors.Is(res.Err(), dispatcher.ErrHandlerFailure) || !errors.Is(res.Err(), ErrCommandFailed) {
		t.Errorf("raise = %v", res.Err())
	}

	res = d.Execute("refuse", w)
	if !errors.Is(res.Err(), ErrCommandFailed) {
		t.Errorf("refuse = %v", res.Err())
	}
	if !d.Exists("raise") || !d.Exists("refuse") {
		t.Error("failed commands should stay registered")
	}
}

func TestCLIRunReentrant(t *testing.T) {
	c, d, w, out := setupCLI(t)

	var got []string
	d.RegisterArgs("record", func(_ *execctx.ExecutionContext, args []string) error {
		got = append(got, args...)
		return nil
	})

	err := c.state.DoString(`
		cli.register_noargs("outer", function()
			local ok = cli.run("record from-lua")
			local self_ok, msg = cli.run("outer")
			print(tostring(ok), tostring(self_ok), tostring(cli.exists("outer")))
			if self_ok then return false, "self call should fail" end
		end)
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if res := d.Execute("outer", w); !res.IsOK() {
		t.Fatalf("unexpected error %v", res.Err())
	}
	if !slices.Equal(got, []string{"from-lua"}) {
		t.Errorf("record got %v", got)
	}
	if out.String() != "true\tfalse\tfalse\n" {
		t.Errorf("output = %q", out.String())
	}
	if !d.Exists("outer") {
		t.Error("outer should be restored")
	}
}

func TestCLITopLevelRun(t *testing.T) {
	c, d, _, _ := setupCLI(t)

	ran := false
	d.RegisterNoArgs("setup", func(*execctx.ExecutionContext) error {
		ran = true
		return nil
	})

	if err := c.state.DoString(`
		assert(cli.run("setup"))
		local ok, msg = cli.run("missing")
		assert(not ok and msg ~= nil)
	`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if !ran {
		t.Error("setup should run from the script's top level")
	}

	c.SetWorld(nil)
	c.state.DoString(`ok, msg = cli.run("setup")`)
	if c.state.GetGlobal("ok") != glua.LFalse {
		t.Error("run without a world should fail")
	}
}

func TestCLIQueue(t *testing.T) {
	c, d, w, out := setupCLI(t)

	c.state.DoString(`
		cli.register("say", function(args) print(args[1]) end)
		cli.register_noargs("later", function()
			cli.queue("say deferred")
			print("now")
		end)
		cli.queue("say tick")
	`)

	if d.Queue().Len() != 1 {
		t.Fatalf("top-level queue should submit to the dispatcher queue")
	}

	d.Execute("later", w)
	if out.String() != "now\ndeferred\n" {
		t.Errorf("output = %q", out.String())
	}

	d.Flush(w)
	if out.String() != "now\ndeferred\ntick\n" {
		t.Errorf("output after flush = %q", out.String())
	}
}

func TestCLINamesRenameUnregister(t *testing.T) {
	c, d, _, _ := setupCLI(t)
	d.RegisterNoArgs("b", func(*execctx.ExecutionContext) error { return nil })

	err := c.state.DoString(`
		cli.register_noargs("a", function() end)
		local names = cli.names()
		assert(#names == 2 and names[1] == "a" and names[2] == "b")

		local ok, msg = cli.rename("a", "b")
		assert(not ok and string.find(msg, "already in use"))

		assert(cli.rename("a", "c"))
		assert(cli.exists("c") and not cli.exists("a"))

		cli.unregister("b")
		assert(not cli.exists("b"))
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if !slices.Equal(c.Registered(), []string{"c"}) {
		t.Errorf("Registered = %v", c.Registered())
	}
}

func TestCLILogging(t *testing.T) {
	var logs bytes.Buffer
	state, err := NewState(WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { state.Close() })

	script := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(script, []byte(`
cli.register("greet", function(args) end)
cli.register_noargs("ping", function() end)
cli.log("hello from lua")
`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := InstallCLI(state, dispatcher.NewWithDefaults(), world.New())
	if err := c.LoadScripts([]string{script}); err != nil {
		t.Fatalf("LoadScripts() error = %v", err)
	}

	got := logs.String()
	for _, want := range []string{`"command":"greet"`, `"command":"ping"`, "hello from lua", "script loaded"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q: %s", want, got)
		}
	}
}
