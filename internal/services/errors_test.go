package services_test

import (
	"errors"
	"strings"
	"testing"

	"cardsight/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("unexpected EOF")
	err := services.Wrap(services.ErrIndexUnavailable, "index", "load", "truncated artifact", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIndexUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"index", "load", "truncated artifact"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrInvalidInput, "canon", "", "degenerate crop", nil)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input marker, got %v", err)
	}
	if got := err.Error(); got != "invalid input: canon: degenerate crop" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"invalid", services.Wrap(services.ErrInvalidInput, "fingerprint", "decode", "", errors.New("bad")), "invalid_input"},
		{"index", services.Wrap(services.ErrIndexUnavailable, "index", "load", "", nil), "index_unavailable"},
		{"skipped", services.Wrap(services.ErrExtractionSkipped, "compiler", "extract", "", nil), "extraction_skipped"},
		{"other", errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
