package execctx_test

import (
	"errors"
	"testing"

	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/world"
)

func TestNew(t *testing.T) {
	ctx := execctx.New()

	if ctx.Commands() == nil {
		t.Error("expected Commands to be initialized")
	}
	if ctx.HasArgs() {
		t.Error("expected no args by default")
	}
}

func TestWithBuilders(t *testing.T) {
	w := world.New()
	ctx := execctx.New().
		WithWorld(w).
		WithCommand("spawn", []string{"1", "2"})

	if ctx.World != w {
		t.Error("expected World to be set")
	}
	if ctx.Command != "spawn" {
		t.Errorf("expected Command 'spawn', got %q", ctx.Command)
	}
	if !ctx.HasArgs() {
		t.Error("expected HasArgs true")
	}
	if ctx.Arg(1) != "2" {
		t.Errorf("expected Arg(1) '2', got %q", ctx.Arg(1))
	}
	if ctx.Arg(5) != "" || ctx.Arg(-1) != "" {
		t.Error("expected empty string for out of range args")
	}
}

func TestValidate(t *testing.T) {
	ctx := execctx.New()
	if err := ctx.Validate(); !errors.Is(err, execctx.ErrMissingWorld) {
		t.Errorf("expected ErrMissingWorld, got %v", err)
	}

	ctx.WithWorld(world.New())
	if err := ctx.Validate(); err != nil {
		t.Errorf("expected valid context, got %v", err)
	}
}

func TestRunWithoutRunner(t *testing.T) {
	ctx := execctx.New().WithWorld(world.New())
	if err := ctx.Run("anything"); !errors.Is(err, execctx.ErrMissingRunner) {
		t.Errorf("expected ErrMissingRunner, got %v", err)
	}
}

func TestRunUsesRunner(t *testing.T) {
	w := world.New()
	var got []string
	ctx := execctx.New().
		WithWorld(w).
		WithRunner(execctx.RunnerFunc(func(line string, rw *world.World) error {
			if rw != w {
				t.Error("runner received a different world")
			}
			got = append(got, line)
			return nil
		}))

	if err := ctx.Run("hello there"); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(got) != 1 || got[0] != "hello there" {
		t.Errorf("runner got %v", got)
	}
}

func TestQueueAndDeferKeepOrder(t *testing.T) {
	w := world.New()
	var order []string
	ctx := execctx.New().
		WithWorld(w).
		WithRunner(execctx.RunnerFunc(func(line string, _ *world.World) error {
			order = append(order, "run:"+line)
			return nil
		}))

	ctx.Queue("first")
	ctx.Defer(func(*world.World) error {
		order = append(order, "mutate")
		return nil
	})
	ctx.Queue("second")

	if len(order) != 0 {
		t.Fatal("queued work should not run before Apply")
	}
	if err := ctx.Commands().Apply(w); err != nil {
		t.Fatalf("Apply error = %v", err)
	}

	want := []string{"run:first", "mutate", "run:second"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestQueuedFailureDoesNotFailApply(t *testing.T) {
	w := world.New()
	ctx := execctx.New().
		WithWorld(w).
		WithRunner(execctx.RunnerFunc(func(string, *world.World) error {
			return errors.New("nested failure")
		}))

	ctx.Queue("broken")
	if err := ctx.Commands().Apply(w); err != nil {
		t.Errorf("Apply error = %v, want nil", err)
	}
}
