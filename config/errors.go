package config

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed configuration entry — a bad front-matter
// mapping, a bad mapping-rules entry, or a rejected config value. It is
// recovered per-entry: the entry is excluded and the run continues.
type ConfigError struct {
	// Source locates the document or file containing the entry.
	Source string

	// Entry identifies the offending entry within the source.
	Entry string

	// Reason describes why the entry was rejected.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config entry %q in %s: %s", e.Entry, e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
