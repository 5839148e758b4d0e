package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks undecodable images, degenerate crops and malformed
	// hints. Surfaced to the caller; retrying the same input cannot succeed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIndexUnavailable marks a missing, truncated, corrupt or incompatible
	// index artifact. A process must not start serving with it.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrExtractionSkipped marks a single corpus entry that could not be
	// fingerprinted during a compile. The compile carries on without it.
	ErrExtractionSkipped = errors.New("extraction skipped")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInvalidInput
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns a short, stable kind for err suitable for log fields and
// CLI output.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrIndexUnavailable):
		return "index_unavailable"
	case errors.Is(err, ErrExtractionSkipped):
		return "extraction_skipped"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "cardsight failure"
	}
	return strings.Join(parts, ": ")
}
