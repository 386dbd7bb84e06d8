package semantic

import (
	"errors"
	"fmt"
	"time"
)

// MappingError reports an artifact that produced no semantic match, or
// an ambiguous one. Recovered by the pipeline: the artifact is recorded
// as unmapped and the run continues.
type MappingError struct {
	// Path is the artifact that failed to map.
	Path string

	// Reason explains the failure.
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("semantic mapping failed for %s: %s", e.Path, e.Reason)
}

// IsMappingError reports whether err is a MappingError.
func IsMappingError(err error) bool {
	var mapErr *MappingError
	return errors.As(err, &mapErr)
}

// ClassifierTimeoutError reports that the model backend did not answer
// within its configured timeout. Recovered via fallback to the
// deterministic backend.
type ClassifierTimeoutError struct {
	// Backend names the backend that timed out.
	Backend string

	// Timeout is the configured deadline that elapsed.
	Timeout time.Duration

	// Err is the underlying error, usually context.DeadlineExceeded.
	Err error
}

func (e *ClassifierTimeoutError) Error() string {
	return fmt.Sprintf("%s classifier unresponsive after %s: %v", e.Backend, e.Timeout, e.Err)
}

func (e *ClassifierTimeoutError) Unwrap() error {
	return e.Err
}

// IsClassifierTimeout reports whether err is a ClassifierTimeoutError.
func IsClassifierTimeout(err error) bool {
	var timeoutErr *ClassifierTimeoutError
	return errors.As(err, &timeoutErr)
}
