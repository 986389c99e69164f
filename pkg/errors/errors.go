// Package errors provides structured error types for commonify.
//
// Every failure the resolver can report carries a machine-readable [Code] so
// the CLI and callers can branch on the kind of failure without matching on
// message text:
//   - INVALID_*: input or manifest validation failures
//   - DEPTH_EXCEEDED: the recursion guard tripped
//   - PACKAGE_NOT_FOUND: neither the source nor a commonified package exists
//   - REGISTRY_ERROR, NETWORK_ERROR: registry query failures other than "not found"
//   - TRANSFORM_FAILED, FILESYSTEM_ERROR: collaborator failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "scope %q must not contain @", scope)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFilesystem, origErr, "extract %s", archive)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"

	// Resolution errors
	ErrCodeDepthExceeded   Code = "DEPTH_EXCEEDED"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"

	// Collaborator errors
	ErrCodeRegistry   Code = "REGISTRY_ERROR"
	ErrCodeNetwork    Code = "NETWORK_ERROR"
	ErrCodeTransform  Code = "TRANSFORM_FAILED"
	ErrCodeFilesystem Code = "FILESYSTEM_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// Only the outermost *Error in the chain is consulted, so a wrapping error's
// code takes precedence over the codes of its causes.
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
