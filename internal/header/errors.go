package header

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrNotSIF              = errors.New("not a recognized file")
	ErrMalformedRecord     = errors.New("malformed stacksize/geometry record")
	ErrInvalidNumber       = errors.New("invalid numeric field")
	ErrMissingCoefficients = errors.New("no wavelength coefficients")
	ErrTruncated           = errors.New("header ended before its last record")
	ErrInvalidGeometry     = errors.New("invalid frame geometry")
	ErrNegativeOffset      = errors.New("payload does not fit in file")
)

// Error describes a header check that failed. Line is -1 for checks that are
// not bound to a single line.
type Error struct {
	Line  int
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func lineError(line int, field string, err error) *Error {
	return &Error{Line: line, Field: field, Err: err}
}
