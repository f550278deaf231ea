package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySchema is returned when the schema text is blank. Callers treat it
	// as "no definition loaded" rather than as a failure.
	ErrEmptySchema = errors.New("no schema definition")

	// ErrNoMessage is returned when a schema declares no message type
	ErrNoMessage = errors.New("no message type found in proto definition")

	// ErrMessageNotFound is returned when a named message is not declared
	ErrMessageNotFound = errors.New("message type not found")

	// ErrCacheMiss is returned when a schema is not in the cache
	ErrCacheMiss = errors.New("cache miss")
)

// ParseError reports malformed schema text. It blocks rendering of the form.
type ParseError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ResolutionWarning reports a type reference or import that could not be
// resolved. The schema still loads; the affected field is degraded to an
// opaque free-text field.
type ResolutionWarning struct {
	// Field is the fully-qualified name of the referring field, or the
	// import path for dropped imports.
	Field string
	// Reference is the type name or import path as written.
	Reference string
	Msg       string
}

func (w ResolutionWarning) String() string {
	return w.Msg
}
