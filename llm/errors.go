package llm

import "errors"

// requestError carries the retry classification of a failed model
// request. Transient failures (network, 429, 5xx) are worth retrying;
// fatal ones (auth, bad request, unknown provider) are not.
type requestError struct {
	err       error
	transient bool
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// NewTransientError marks err as retryable.
func NewTransientError(err error) error {
	return &requestError{err: err, transient: true}
}

// NewFatalError marks err as non-retryable.
func NewFatalError(err error) error {
	return &requestError{err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var re *requestError
	return errors.As(err, &re) && re.transient
}

// IsFatal reports whether err must not be retried.
func IsFatal(err error) bool {
	var re *requestError
	return errors.As(err, &re) && !re.transient
}
