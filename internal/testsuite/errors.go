package testsuite

import (
	"errors"
	"fmt"
)

// Error kinds returned across the store and query layers. Callers match them
// with errors.Is.
var (
	// ErrInvalidArgument marks bad caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks an unknown suite or run.
	ErrNotFound = errors.New("not found")
	// ErrInternal marks a storage invariant violation. It is never retried.
	ErrInternal = errors.New("internal inconsistency")
	// ErrAlreadyExists marks a name collision. It also matches ErrInvalidArgument.
	ErrAlreadyExists error = &kindError{msg: "already exists", parent: ErrInvalidArgument}
)

type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

// InvalidArgumentf returns an error matching ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error matching ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// AlreadyExistsf returns an error matching ErrAlreadyExists and ErrInvalidArgument.
func AlreadyExistsf(format string, args ...any) error {
	return fmt.Errorf("%s %w", fmt.Sprintf(format, args...), ErrAlreadyExists)
}

// Internalf returns an error matching ErrInternal.
func Internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
