package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeDataEmpty, "dataset has no columns")
	if got := err.Error(); !strings.Contains(got, "[DATA-001]") || !strings.Contains(got, "no columns") {
		t.Errorf("unexpected error text: %s", got)
	}
}

func TestErrorWithSuggestions(t *testing.T) {
	err := New(ErrCodeFormatUnknown, "cannot detect format").
		WithSuggestion("use a conventional extension").
		WithSuggestions("or pass the format explicitly", "see the docs")

	got := err.Error()
	if !strings.Contains(got, "Suggestions:") {
		t.Error("suggestions section missing")
	}
	if len(err.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(err.Suggestions))
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeFileWriteFailed, "write bundle", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Error("cause text should appear in the message")
	}
}

func TestCodeOf(t *testing.T) {
	inner := New(ErrCodeBundleChecksum, "mismatch")
	wrapped := Wrap(ErrCodeFileReadFailed, "read", inner)

	if CodeOf(wrapped) != ErrCodeFileReadFailed {
		t.Error("CodeOf should report the outermost code")
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
	if !IsCode(inner, ErrCodeBundleChecksum) {
		t.Error("IsCode failed on direct match")
	}
}
