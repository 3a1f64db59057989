// Package edi implements the X12 segment grammar: lexing delimited
// positional text into tagged segments and building normalized purchase
// orders from them.
//
// This file defines sentinel errors and typed wrappers for classifying
// parse failures. Callers use errors.Is/errors.As for typed assertions
// rather than string matching.
package edi

import (
	"errors"
	"fmt"
)

// Sentinel errors for parse failure classification.
var (
	// ErrInvalidInput indicates empty or non-textual document content.
	ErrInvalidInput = errors.New("invalid EDI input")

	// ErrMalformedDate indicates a BEG date that is not 8 numeric digits.
	ErrMalformedDate = errors.New("malformed BEG date")
)

// FieldParseError reports a segment element that failed numeric parsing.
// It carries the segment tag, the zero-based element index, and the
// offending value so operators can locate the bad field in the raw file.
type FieldParseError struct {
	Tag     string
	Element int
	Value   string
	Err     error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("%s element %02d: cannot parse %q: %v", e.Tag, e.Element+1, e.Value, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *FieldParseError) Unwrap() error {
	return e.Err
}

// DateError wraps a malformed BEG date with the raw value.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date format %q: want 8 digits (YYYYMMDD)", e.Value)
}

// Is reports whether the error matches ErrMalformedDate.
func (e *DateError) Is(target error) bool {
	return target == ErrMalformedDate
}

// SequenceError reports a segment out of canonical order.
type SequenceError struct {
	Position int
	Want     string
	Got      string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("invalid segment sequence at position %d: expected %s but got %s", e.Position, e.Want, e.Got)
}
