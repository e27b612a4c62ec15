package handler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

func TestNoArgsHandler(t *testing.T) {
	called := false
	h := handler.NoArgs(func(ctx *execctx.ExecutionContext) error {
		called = true
		return nil
	})

	if h.Kind() != handler.KindNoArgs {
		t.Errorf("expected KindNoArgs, got %v", h.Kind())
	}
	if err := h.Invoke(execctx.New(), []string{"ignored"}); err != nil {
		t.Fatalf("Invoke error = %v", err)
	}
	if !called {
		t.Error("expected handler func to be called")
	}
}

func TestArgsHandlerReceivesNonNilSlice(t *testing.T) {
	var got []string
	h := handler.Args(func(ctx *execctx.ExecutionContext, args []string) error {
		got = args
		return nil
	})

	if h.Kind() != handler.KindArgs {
		t.Errorf("expected KindArgs, got %v", h.Kind())
	}
	if err := h.Invoke(execctx.New(), nil); err != nil {
		t.Fatalf("Invoke error = %v", err)
	}
	if got == nil {
		t.Error("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected empty args, got %v", got)
	}

	if err := h.Invoke(execctx.New(), []string{"1", "2"}); err != nil {
		t.Fatalf("Invoke error = %v", err)
	}
	if strings.Join(got, ",") != "1,2" {
		t.Errorf("expected args [1 2], got %v", got)
	}
}

func TestHandlerPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	h := handler.NoArgs(func(ctx *execctx.ExecutionContext) error { return boom })

	if err := h.Invoke(execctx.New(), nil); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestHandlerNilFunc(t *testing.T) {
	tests := []*handler.Handler{
		handler.NoArgs(nil),
		handler.Args(nil),
		{},
	}
	for i, h := range tests {
		if err := h.Invoke(execctx.New(), nil); !errors.Is(err, handler.ErrNilFunc) {
			t.Errorf("case %d: expected ErrNilFunc, got %v", i, err)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind handler.Kind
		want string
	}{
		{handler.KindNoArgs, "noargs"},
		{handler.KindArgs, "args"},
		{handler.Kind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
		if tt.kind.Valid() != (tt.want != "unknown") {
			t.Errorf("Kind(%d).Valid() mismatch", tt.kind)
		}
	}
}
