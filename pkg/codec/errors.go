package codec

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is matched by every ValidationError
var ErrInvalidValue = errors.New("invalid arguments")

// ValidationError reports a value tree that does not match its type
// descriptor. No bytes are produced when it is returned.
type ValidationError struct {
	// Path is the dotted path of the offending field, with list indexes in
	// brackets, e.g. "steps[1].cmd"
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidValue, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidValue, e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidValue
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidValue
}

func invalid(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
