package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRateLimited          = errors.New("rate limited")
	ErrUpstreamRateLimit    = errors.New("upstream rate limit")
	ErrModelNotFound        = errors.New("model not found")
	ErrServiceUnavailable   = errors.New("service unavailable")
	ErrSchemaInvalid        = errors.New("schema invalid")
	ErrInvalidTaskStructure = errors.New("invalid task structure")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrInternal             = errors.New("internal error")
)

// Conflicts raised by the session state machine.
var (
	ErrAttemptExhausted = fmt.Errorf("%w: test attempt already used", ErrConflict)
	ErrAlreadySubmitted = fmt.Errorf("%w: answer already submitted", ErrConflict)
)

// ValidationError reports oracle output that parsed as JSON but broke the
// expected schema. It is never masked by an offline fallback.
type ValidationError struct {
	Op       string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("op=%s: oracle output failed validation: %s", e.Op, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrSchemaInvalid }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
