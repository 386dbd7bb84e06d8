package evidence

import (
	"errors"
	"fmt"
)

// EvidenceValidationError reports a collected item that failed its
// requirement's criteria. Non-fatal: the item is retained as invalid
// for audit and the error is logged.
type EvidenceValidationError struct {
	// Location is the artifact the item was collected from.
	Location string

	// Requirement is the description of the unmet requirement.
	Requirement string

	// Missing lists the criteria groups with no alternative present.
	Missing []string
}

func (e *EvidenceValidationError) Error() string {
	return fmt.Sprintf("evidence at %s failed validation for %q: missing %v",
		e.Location, e.Requirement, e.Missing)
}

// IsValidationError reports whether err is an EvidenceValidationError.
func IsValidationError(err error) bool {
	var valErr *EvidenceValidationError
	return errors.As(err, &valErr)
}
