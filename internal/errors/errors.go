package errors

import (
	"errors"
	"fmt"
)

// ETLError represents a structured processing error with a stable code.
// Codes distinguish fatal conditions (missing input, missing columns) from
// per-field conditions that callers downgrade to null values.
type ETLError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *ETLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap supports errors.Is and errors.As chains
func (e *ETLError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so sentinel comparisons survive wrapping
func (e *ETLError) Is(target error) bool {
	var t *ETLError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates a new ETLError with the given code and message
func New(code, message string) *ETLError {
	return &ETLError{Code: code, Message: message}
}

// Wrap creates an ETLError wrapping an underlying cause
func Wrap(code, message string, err error) *ETLError {
	return &ETLError{Code: code, Message: message, Err: err}
}

// Error codes
const (
	CodeMissingFile    = "MISSING_FILE"
	CodeMissingColumn  = "MISSING_COLUMN"
	CodeParseFailure   = "PARSE_FAILURE"
	CodeLookupMiss     = "LOOKUP_MISS"
	CodeInvalidProfile = "INVALID_PROFILE"
	CodeFetchFailed    = "FETCH_FAILED"
	CodeEmptySheet     = "EMPTY_SHEET"
)

// Predefined errors for sentinel comparisons via errors.Is
var (
	ErrMissingFile    = New(CodeMissingFile, "required input file not found")
	ErrMissingColumn  = New(CodeMissingColumn, "expected column not found in header")
	ErrParseFailure   = New(CodeParseFailure, "cell value could not be coerced")
	ErrLookupMiss     = New(CodeLookupMiss, "code absent from reference table")
	ErrInvalidProfile = New(CodeInvalidProfile, "fund profile failed validation")
	ErrFetchFailed    = New(CodeFetchFailed, "reference page fetch failed")
	ErrEmptySheet     = New(CodeEmptySheet, "source sheet contains no rows")
)

// MissingFile reports an absent source or lookup file. Fatal for the run.
func MissingFile(path string, err error) *ETLError {
	return &ETLError{
		Code:    CodeMissingFile,
		Message: fmt.Sprintf("required input file not found: %s", path),
		Details: path,
		Err:     err,
	}
}

// MissingColumn reports a required destination field with no source column.
// Fatal for the run.
func MissingColumn(column string) *ETLError {
	return &ETLError{
		Code:    CodeMissingColumn,
		Message: fmt.Sprintf("expected column not found in header: %s", column),
		Details: column,
	}
}

// ParseFailure reports a cell that could not be coerced to its target type.
// Non-fatal: the field is left empty and processing continues.
func ParseFailure(row int, column, value string) *ETLError {
	return &ETLError{
		Code:    CodeParseFailure,
		Message: fmt.Sprintf("row %d column %q: cannot parse %q", row, column, value),
		Details: map[string]interface{}{"row": row, "column": column, "value": value},
	}
}

// LookupMiss reports a code absent from a reference table. Non-fatal: the
// raw code is retained verbatim.
func LookupMiss(code string) *ETLError {
	return &ETLError{
		Code:    CodeLookupMiss,
		Message: fmt.Sprintf("code %q absent from reference table", code),
		Details: code,
	}
}

// InvalidProfile reports a fund profile that failed validation
func InvalidProfile(name string, err error) *ETLError {
	return &ETLError{
		Code:    CodeInvalidProfile,
		Message: fmt.Sprintf("fund profile %q failed validation", name),
		Details: name,
		Err:     err,
	}
}

// FetchFailed reports a reference page that could not be retrieved
func FetchFailed(url string, err error) *ETLError {
	return &ETLError{
		Code:    CodeFetchFailed,
		Message: fmt.Sprintf("failed to fetch %s", url),
		Details: url,
		Err:     err,
	}
}

// EmptySheet reports a source sheet with nothing to scan.
func EmptySheet(detail string) *ETLError {
	return &ETLError{
		Code:    CodeEmptySheet,
		Message: "source sheet contains no rows",
		Details: detail,
	}
}

// IsFatal reports whether an error should abort the run rather than be
// downgraded to an empty field.
func IsFatal(err error) bool {
	var e *ETLError
	if !errors.As(err, &e) {
		return true
	}
	switch e.Code {
	case CodeParseFailure, CodeLookupMiss:
		return false
	default:
		return true
	}
}
