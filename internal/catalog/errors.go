package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a catalog directory or file does not exist.
	ErrNotFound = errors.New("catalog not found")

	// ErrInvalid indicates a catalog file that cannot be used as authored.
	ErrInvalid = errors.New("invalid catalog")
)

// ConfigurationError reports a missing or malformed catalog. It is fatal to
// the evaluation that needed the catalog.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(path string, err error) *ConfigurationError {
	return &ConfigurationError{Path: path, Err: err}
}
