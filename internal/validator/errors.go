package validator

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates a validator call exceeded its deadline.
	ErrTimeout = errors.New("validator call timed out")

	// ErrTransport indicates the backend could not be reached or refused the call.
	ErrTransport = errors.New("validator transport failure")

	// ErrMalformedResponse indicates a response that is not JSON or lacks a
	// required key.
	ErrMalformedResponse = errors.New("malformed validator response")
)

// ServiceError is returned by every Validator method on failure.
type ServiceError struct {
	Category Category
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("validator %s: %v", e.Category, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// retryableError marks transport failures worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
