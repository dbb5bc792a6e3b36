package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller mistakes: bad frequency, mismatched
	// inputs, missing bond fields. Never retryable.
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported amortization method", ErrInvalidArgument)
)

// ArgumentError names the offending field of a rejected input.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalid(field, format string, args ...interface{}) error {
	return &ArgumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
