package core

import (
	"errors"
	"fmt"
)

// ErrorCode represents a structured sdmx-core error code.
type ErrorCode string

const (
	CodeSchemaAmbiguity     ErrorCode = "E_SCHEMA_AMBIGUITY"
	CodeLookupFailure       ErrorCode = "E_LOOKUP_FAILURE"
	CodeTypeCoercion        ErrorCode = "E_TYPE_COERCION"
	CodeDegenerateSelection ErrorCode = "E_DEGENERATE_SELECTION"
	CodeUndefinedRatio      ErrorCode = "E_UNDEFINED_RATIO"
	CodeUnknownComponent    ErrorCode = "E_UNKNOWN_COMPONENT"
	CodeColumnNotFound      ErrorCode = "E_COLUMN_NOT_FOUND"
	CodeNoStructure         ErrorCode = "E_NO_STRUCTURE"
)

// Sentinels for errors.Is matching. Only the code is compared.
var (
	ErrSchemaAmbiguity     = &Error{Code: CodeSchemaAmbiguity}
	ErrLookupFailure       = &Error{Code: CodeLookupFailure}
	ErrTypeCoercion        = &Error{Code: CodeTypeCoercion}
	ErrDegenerateSelection = &Error{Code: CodeDegenerateSelection}
	ErrUndefinedRatio      = &Error{Code: CodeUndefinedRatio}
	ErrUnknownComponent    = &Error{Code: CodeUnknownComponent}
	ErrColumnNotFound      = &Error{Code: CodeColumnNotFound}
	ErrNoStructure         = &Error{Code: CodeNoStructure}
)

// Error carries an sdmx-core error code. All codes describe input-shape
// problems detected locally, so none of them is retryable.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Code == e.Code
}

// CodeValue returns the string error code.
func (e *Error) CodeValue() string { return string(e.Code) }

// RetryableStatus always reports false.
func (e *Error) RetryableStatus() bool { return false }

// CodedError exposes error code metadata.
type CodedError interface {
	error
	CodeValue() string
	RetryableStatus() bool
}

// NewError builds a coded error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return newError(code, format, args...)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// LookupError reports a data value missing from its component's codelist.
type LookupError struct {
	Dimension string
	Code      string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: code %q not found in enumeration of %q", CodeLookupFailure, e.Code, e.Dimension)
}

func (e *LookupError) Is(target error) bool {
	return errors.Is(ErrLookupFailure, target)
}

// CoercionError reports a non-numeric token in a numeric column.
type CoercionError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: cannot parse %q: %v", CodeTypeCoercion, e.Column, e.Row, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

func (e *CoercionError) Is(target error) bool {
	return errors.Is(ErrTypeCoercion, target)
}

// CodeOf returns the error code carried by err, or "" when none.
func CodeOf(err error) ErrorCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	switch {
	case errors.Is(err, ErrLookupFailure):
		return CodeLookupFailure
	case errors.Is(err, ErrTypeCoercion):
		return CodeTypeCoercion
	}
	return ""
}
