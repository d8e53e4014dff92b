// Package errors provides structured error types for the plexsim simulator.
//
// Errors in plexsim fall into three classes:
//   - Configuration errors: malformed generator commands, out-of-domain
//     attribute values, incompatible graph/model pairings. They carry an
//     INVALID_* or INCOMPATIBLE_* code and are returned instead of a
//     partially built object.
//   - I/O errors: missing files, unwritable directories. They carry
//     FILE_NOT_FOUND or IO_ERROR.
//   - Invariant violations: unknown node or edge ids, mismatched value types,
//     reused plugin instances. These are bugs and panic; they never reach
//     this package.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCommand, "unable to parse %q", cmd)
//	if errors.Is(err, errors.ErrCodeInvalidCommand) {
//	    // report to the user
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write population %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidCommand Code = "INVALID_COMMAND"
	ErrCodeInvalidRange   Code = "INVALID_RANGE"
	ErrCodeInvalidValue   Code = "INVALID_VALUE"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeIncompatible   Code = "INCOMPATIBLE_PLUGINS"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodePluginNotFound Code = "PLUGIN_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeTrialNotFound  Code = "TRIAL_NOT_FOUND"

	// I/O errors
	ErrCodeIO Code = "IO_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix, followed by
// the cause if there is one. For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsConfiguration reports whether err is a configuration error, i.e. bad
// input rather than a failed environment.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidCommand, ErrCodeInvalidRange,
		ErrCodeInvalidValue, ErrCodeInvalidConfig, ErrCodeInvalidPath,
		ErrCodeIncompatible, ErrCodePluginNotFound:
		return true
	}
	return false
}
