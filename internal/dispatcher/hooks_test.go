package dispatcher_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/dispatcher/handler"
	"github.com/dshills/ecscli/internal/world"
)

func TestPreHookRewritesArgs(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var got []string
	d.RegisterArgs("echo", func(_ *execctx.ExecutionContext, args []string) error {
		got = args
		return nil
	})
	d.RegisterPreHook(dispatcher.PreExecuteFunc(func(line *dispatcher.Line, kind handler.Kind) bool {
		line.Name = "ignored"
		line.Args = append(line.Args, "extra")
		return true
	}))

	res := d.Execute("echo hi", world.New())
	if !res.IsOK() {
		t.Fatalf("unexpected result %v", res.Err())
	}
	if len(got) != 2 || got[1] != "extra" {
		t.Errorf("args = %v, want [hi extra]", got)
	}
}

func TestDenyHookCancels(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	called := false
	d.RegisterNoArgs("quit", func(*execctx.ExecutionContext) error {
		called = true
		return nil
	})
	d.RegisterPreHook(dispatcher.NewDenyHook("quit"))

	res := d.Execute("quit", world.New())
	if called {
		t.Error("denied command should not run")
	}
	if res.Status != handler.StatusCancelled || !errors.Is(res.Err(), dispatcher.ErrCancelled) {
		t.Errorf("expected cancelled result, got %v / %v", res.Status, res.Err())
	}
	if !d.Exists("quit") {
		t.Error("cancelled command should stay registered")
	}
}

func TestPostHookSeesEveryResult(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	d.RegisterNoArgs("ok", func(*execctx.ExecutionContext) error { return nil })

	var statuses []handler.ResultStatus
	d.RegisterPostHook(dispatcher.PostExecuteFunc(func(_ dispatcher.Line, r *handler.Result) {
		statuses = append(statuses, r.Status)
	}))

	w := world.New()
	d.Execute("ok", w)
	d.Execute("", w)
	d.Execute("missing", w)

	want := []handler.ResultStatus{handler.StatusOK, handler.StatusEmptyInput, handler.StatusNotFound}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %v, want %v", i, statuses[i], want[i])
		}
	}
}

func TestPostHookSeesNestingDepth(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	d.RegisterNoArgs("outer", func(ctx *execctx.ExecutionContext) error {
		return ctx.Run("inner")
	})
	d.RegisterNoArgs("inner", func(ctx *execctx.ExecutionContext) error {
		return ctx.Run("missing")
	})

	depths := map[string]int{}
	d.RegisterPostHook(dispatcher.PostExecuteFunc(func(l dispatcher.Line, r *handler.Result) {
		depths[l.Name] = r.Depth
	}))

	w := world.New()
	d.Execute("outer", w)

	want := map[string]int{"outer": 0, "inner": 1, "missing": 2}
	for name, depth := range want {
		if got, ok := depths[name]; !ok || got != depth {
			t.Errorf("depth of %s = %d (seen %v), want %d", name, got, ok, depth)
		}
	}

	d.Execute("missing", w)
	if depths["missing"] != 0 {
		t.Errorf("top-level depth = %d, want 0", depths["missing"])
	}
}

func TestLoggingHook(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	d := dispatcher.NewWithDefaults()
	d.RegisterNoArgs("ok", func(*execctx.ExecutionContext) error { return nil })
	d.RegisterPostHook(dispatcher.NewLoggingHook(logger))

	d.Execute("ok", world.New())

	out := buf.String()
	if !strings.Contains(out, `"command":"ok"`) || !strings.Contains(out, `"status":"ok"`) {
		t.Errorf("unexpected log output %s", out)
	}
}
