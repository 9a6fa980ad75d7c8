package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed or empty input. Surfaced to callers as a
	// client-side failure before any engine work runs.
	ErrValidation = errors.New("validation error")
	// ErrSegment marks a decode or write failure for a single segment.
	ErrSegment = errors.New("segment processing error")
	// ErrTranscode marks an engine-reported failure. The engine diagnostic is
	// carried unmodified in the wrapped error chain.
	ErrTranscode = errors.New("transcode error")
	// ErrTimeout marks an engine invocation that exceeded its wall-clock
	// budget. Kept distinct from ErrTranscode so callers can tell a hung
	// engine from a failing one.
	ErrTimeout = errors.New("transcode timeout")
	// ErrJobStore marks a persistence failure. Never overturns a composition
	// result that was already produced.
	ErrJobStore = errors.New("job store error")
	// ErrCleanup marks a reclamation failure. Always non-fatal.
	ErrCleanup = errors.New("cleanup error")
	// ErrConfiguration marks an unusable environment or config value.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing job or asset reference.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTranscode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsClientError reports whether an error should map to a client-side failure
// (HTTP 4xx) rather than a server-side one.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
