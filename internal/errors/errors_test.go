package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestRunErrorUnwrapsSentinel(t *testing.T) {
	err := NewRunError(CodeInsufficientData, "need %d bars, have %d", 50, 30)

	if !errors.Is(err, ErrInsufficientData) {
		t.Error("RunError should unwrap to its sentinel")
	}
	if errors.Is(err, ErrUnknownStrategy) {
		t.Error("RunError should not match another sentinel")
	}
	if err.Message != "need 50 bars, have 30" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestRunErrorUnwrapsWrappedCause(t *testing.T) {
	cause := errors.New("boom")
	err := &RunError{Code: CodeInvalidBalance, Message: "bad balance", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("RunError with an explicit cause should unwrap to it")
	}
}

func TestCodeOf(t *testing.T) {
	err := NewRunError(CodeUnknownStrategy, "no such strategy")
	wrapped := fmt.Errorf("running backtest: %w", err)

	if got := CodeOf(wrapped); got != CodeUnknownStrategy {
		t.Errorf("CodeOf = %s, want UNKNOWN_STRATEGY", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf plain error = %s, want empty", got)
	}
}

func TestDataErrorUnwrap(t *testing.T) {
	err := NewDataError("csv", "/data/EURUSD_M5.csv", "bar file not found", ErrDataNotFound)

	if !errors.Is(err, ErrDataNotFound) {
		t.Error("DataError should unwrap to its cause")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}
