package scanner

import (
	"errors"
	"fmt"
)

// ScanError reports an unreadable file or path. Scan errors are recovered:
// the path is skipped and logged, and the overall scan continues.
type ScanError struct {
	// Path is the offending path relative to the scan root.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsScanError returns true if err is (or wraps) a ScanError.
func IsScanError(err error) bool {
	var se *ScanError
	return errors.As(err, &se)
}
