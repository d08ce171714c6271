package errors

import (
	"math"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("Newton.Init", "dimension", "must be positive", -3)

	var cfgErr *ConfigError
	if !As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Param != "dimension" {
		t.Errorf("Param = %q, want %q", cfgErr.Param, "dimension")
	}
	if !strings.Contains(err.Error(), "dimension") {
		t.Errorf("message %q does not mention the parameter", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("IGD.Transition", 4, 3)

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %T", err)
	}
	if dimErr.Expected != 4 || dimErr.Got != 3 {
		t.Errorf("got expected=%d got=%d, want 4 and 3", dimErr.Expected, dimErr.Got)
	}
}

func TestNumericErrorMessageTruncatesValues(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	err := NewNumericError("Newton.Finalize", "singular Hessian", values, 2)

	msg := err.Error()
	if !strings.Contains(msg, "...") {
		t.Errorf("long value list should be truncated in %q", msg)
	}
	if !strings.Contains(msg, "iteration 2") {
		t.Errorf("message %q should name the iteration", msg)
	}
}

func TestNoDataSentinel(t *testing.T) {
	wrapped := Wrap(ErrNoData, "finalize")
	if !Is(wrapped, ErrNoData) {
		t.Error("wrapped ErrNoData should still match the sentinel")
	}
}

func TestSizeLimitError(t *testing.T) {
	err := NewSizeLimitError("Newton.Init", "dimension", 20000, 10000)

	var sizeErr *SizeLimitError
	if !As(err, &sizeErr) {
		t.Fatalf("expected SizeLimitError, got %T", err)
	}
	if sizeErr.Got != 20000 {
		t.Errorf("Got = %d, want 20000", sizeErr.Got)
	}
}

func TestCheckVector(t *testing.T) {
	if err := CheckVector("gradient", []float64{1, -2, 3}, 0); err != nil {
		t.Errorf("finite vector should pass: %v", err)
	}
	if err := CheckVector("gradient", []float64{1, math.NaN()}, 0); err == nil {
		t.Error("NaN should be rejected")
	}
	if err := CheckScalar("loss", math.Inf(1), 1); err == nil {
		t.Error("Inf should be rejected")
	}
}

func TestStabilizeExp(t *testing.T) {
	if v := StabilizeExp(1000); math.IsInf(v, 0) {
		t.Error("StabilizeExp must not overflow to Inf")
	}
	if v := StabilizeExp(-1000); v != 0 {
		t.Errorf("StabilizeExp(-1000) = %v, want 0", v)
	}
}

func TestZerologWarnSinkTakesPrecedence(t *testing.T) {
	var viaHandler, viaSink error
	SetWarningHandler(func(w error) { viaHandler = w })
	SetZerologWarnFunc(func(w error) { viaSink = w })
	defer func() {
		SetWarningHandler(func(w error) {})
		SetZerologWarnFunc(nil)
	}()

	Warn(NewConvergenceWarning("cg", 50, ""))

	if viaSink == nil {
		t.Fatal("zerolog sink was not invoked")
	}
	if viaHandler != nil {
		t.Error("plain handler should be bypassed while a sink is installed")
	}
}

func TestSingularMatrixMark(t *testing.T) {
	err := Mark(NewNumericError("factorize", "not positive definite", nil, 3), ErrSingularMatrix)

	if !Is(err, ErrSingularMatrix) {
		t.Error("marked error should match the sentinel")
	}
	var numErr *NumericError
	if !As(err, &numErr) {
		t.Error("marking must preserve the concrete error type")
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(func(w error) {})

	w := NewConvergenceWarning("igd", 100, "")
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "igd") {
		t.Errorf("warning %q should name the algorithm", captured.Error())
	}
}
