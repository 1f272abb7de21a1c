// Package errors defines the typed errors shared by classkit components.
package errors

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeUnknown                = "UNKNOWN_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeMalformedClass         = "MALFORMED_CLASS"
	CodeUnsupportedInstruction = "UNSUPPORTED_INSTRUCTION"
	CodeParseError             = "PARSE_ERROR"
	CodeUnsupported            = "UNSUPPORTED"
	CodeClosed                 = "CLOSED"
	CodeLoadError              = "LOAD_ERROR"
	CodeConfigError            = "CONFIG_ERROR"
	CodeStorageError           = "STORAGE_ERROR"
	CodeDatabaseError          = "DATABASE_ERROR"
)

// AppError carries a stable code alongside a message and an optional cause.
// Two AppErrors match under errors.Is when their codes are equal.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is matching.
var (
	ErrNotFound               = New(CodeNotFound, "not found")
	ErrMalformedClass         = New(CodeMalformedClass, "malformed class")
	ErrUnsupportedInstruction = New(CodeUnsupportedInstruction, "unsupported instruction")
	ErrParseError             = New(CodeParseError, "parse error")
	ErrUnsupported            = New(CodeUnsupported, "unsupported operation")
	ErrClosed                 = New(CodeClosed, "source closed")
	ErrLoadError              = New(CodeLoadError, "mapping load failed")
	ErrConfigError            = New(CodeConfigError, "configuration error")
	ErrStorageError           = New(CodeStorageError, "storage error")
	ErrDatabaseError          = New(CodeDatabaseError, "database error")
)

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMalformedClass checks if the error is a class decoding error.
func IsMalformedClass(err error) bool {
	return errors.Is(err, ErrMalformedClass)
}

// IsUnsupported checks if the error reports a missing optional capability.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsParseError checks if the error is a mapping parse error.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParseError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
