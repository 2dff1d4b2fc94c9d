package workout

import (
	"fmt"

	"github.com/myrjola/overload/internal/errors"
)

var (
	// ErrInvalidRequest is returned for requests that fail validation.
	ErrInvalidRequest = errors.NewSentinel("invalid request")
	// ErrNotFound is returned when the requested data does not exist.
	ErrNotFound = errors.NewSentinel("not found")
)

// requestError describes a validation failure in terms safe to show to the caller.
type requestError struct {
	field  string
	reason string
}

func invalid(field, format string, args ...any) error {
	return &requestError{field: field, reason: fmt.Sprintf(format, args...)}
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest, e.field, e.reason)
}

func (e *requestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// notFoundError carries a caller-safe description of what was missing.
type notFoundError struct {
	what string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.what)
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UserMessage returns a short message about err that is safe to show to API clients. Validation and lookup
// failures describe themselves, anything else collapses to fallback.
func UserMessage(err error, fallback string) string {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("Invalid %s: %s", reqErr.field, reqErr.reason)
	}
	var nfErr *notFoundError
	if errors.As(err, &nfErr) {
		return "Not found: " + nfErr.what
	}
	return fallback
}
