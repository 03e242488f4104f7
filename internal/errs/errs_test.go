package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestEngineErrorMessageIncludesLocation(t *testing.T) {
	err := NewParseError("fixture.ies", 12, "unexpected token")
	msg := err.Error()
	if !strings.Contains(msg, "fixture.ies") || !strings.Contains(msg, "12") {
		t.Fatalf("expected message to include source path and line, got %q", msg)
	}
	if !strings.Contains(msg, string(KindParse)) {
		t.Fatalf("expected message to include kind, got %q", msg)
	}
}

func TestEngineErrorMessageWithoutSourcePath(t *testing.T) {
	err := NewRuntimeError("unsupported job type")
	msg := err.Error()
	if strings.Contains(msg, "()") {
		t.Fatalf("expected no empty parens when source path is absent, got %q", msg)
	}
}

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("disk read failed")
	err := &EngineError{Kind: KindParse, Reason: "could not read file", Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestWithContextChains(t *testing.T) {
	err := NewValidationError("missing material").WithContext("material_id", "mat-1")
	if err.Context["material_id"] != "mat-1" {
		t.Fatalf("expected context to carry material_id, got %+v", err.Context)
	}
}

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(ErrCancelled) {
		t.Fatal("expected ErrCancelled to report as cancellation")
	}
	if IsCancellation(NewRuntimeError("boom")) {
		t.Fatal("expected a non-cancellation error to not report as cancellation")
	}
	if IsCancellation(errors.New("plain")) {
		t.Fatal("expected a non-EngineError to not report as cancellation")
	}
}

func TestRecoveryAccumulatesWarningsInOrder(t *testing.T) {
	r := NewRecovery()
	if r.HasWarnings() {
		t.Fatal("expected fresh Recovery to have no warnings")
	}
	r.Warn("first %d", 1)
	r.Warn("second %d", 2)
	if !r.HasWarnings() {
		t.Fatal("expected Recovery to report warnings after Warn")
	}
	got := r.Warnings()
	want := []string{"first 1", "second 2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d warnings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("warning[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecoveryWarningsReturnsCopy(t *testing.T) {
	r := NewRecovery()
	r.Warn("one")
	got := r.Warnings()
	got[0] = "mutated"
	if r.Warnings()[0] != "one" {
		t.Fatal("expected Warnings() to return a defensive copy")
	}
}
