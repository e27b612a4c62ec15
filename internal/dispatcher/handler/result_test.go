package handler_test

import (
	"errors"
	"testing"

	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

func TestResultStatusString(t *testing.T) {
	tests := []struct {
		status handler.ResultStatus
		want   string
	}{
		{handler.StatusOK, "ok"},
		{handler.StatusEmptyInput, "empty-input"},
		{handler.StatusNotFound, "not-found"},
		{handler.StatusError, "error"},
		{handler.StatusCancelled, "cancelled"},
		{handler.ResultStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ResultStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestResultOutcome(t *testing.T) {
	r := handler.Result{Status: handler.StatusOK, Warning: errors.New("warn")}
	if !r.IsOK() || r.IsError() || r.Err() != nil {
		t.Errorf("warnings should not make a result fail: %+v", r)
	}

	base := errors.New("base")
	r = handler.Result{Status: handler.StatusError, Error: base}
	if r.IsOK() || !r.IsError() || !errors.Is(r.Err(), base) {
		t.Errorf("unexpected result %+v", r)
	}
}
