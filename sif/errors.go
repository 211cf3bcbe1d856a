// Package sif provides a pure Go reader for Andor SIF camera files.
package sif

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-sif/internal/binary"
	"github.com/robert-malhotra/go-sif/internal/header"
)

// Common errors
var (
	ErrNotSIF              = header.ErrNotSIF
	ErrMalformedRecord     = header.ErrMalformedRecord
	ErrInvalidNumber       = header.ErrInvalidNumber
	ErrMissingCoefficients = header.ErrMissingCoefficients
	ErrTruncated           = header.ErrTruncated
	ErrInvalidGeometry     = header.ErrInvalidGeometry
	ErrNegativeOffset      = header.ErrNegativeOffset
	ErrShortRead           = binary.ErrShortRead
	ErrFrameIndex          = errors.New("negative frame index")
	ErrNotSeekable         = errors.New("file does not support random access")
)

// FormatError reports a file whose header does not match the SIF layout.
// Line is -1 when the failed check is not bound to a header line. Path is
// empty for headers parsed from an unnamed reader.
type FormatError struct {
	Path  string
	Line  int
	Check string
	Err   error
}

func (e *FormatError) Error() string {
	prefix := "sif: "
	if e.Path != "" {
		prefix += e.Path + ": "
	}
	if e.Line < 0 {
		return fmt.Sprintf("%s%s: %v", prefix, e.Check, e.Err)
	}
	return fmt.Sprintf("%sline %d (%s): %v", prefix, e.Line, e.Check, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IOError reports a failure to open, stat or read a file.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sif: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sif: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// classify turns a header package error into a FormatError, and anything
// else into an IOError for op.
func classify(path, op string, err error) error {
	var herr *header.Error
	if errors.As(err, &herr) {
		return &FormatError{Path: path, Line: herr.Line, Check: herr.Field, Err: herr.Err}
	}
	return &IOError{Path: path, Op: op, Err: err}
}
