// Package errors provides error handling for pharmadex.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// On top of that it defines the category taxonomy used across the data
// access layer (see category.go). Storage failures, missing rows, network
// failures and provider errors are all carried as *Error values so callers
// can branch on CategoryOf(err) instead of matching strings.
//
// Usage:
//
//	if err := q.Execute(ctx); err != nil {
//	    return errors.Database(err, "list companies")
//	}
//
//	switch errors.CategoryOf(err) {
//	case errors.CategoryNotFound:
//	    // 404
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Common sentinel errors.
// Use these with errors.Is() for type-safe error checking.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrInvalidCredentials is returned by the stub storage client when the
	// storage URL or key is missing or still a placeholder value
	ErrInvalidCredentials = New("invalid storage credentials")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")

	// ErrConflict indicates a resource conflict (e.g., duplicate slug)
	ErrConflict = New("resource conflict")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound, or carries the
// not_found category.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrNotFound) || CategoryOf(err) == CategoryNotFound
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && (Is(err, ErrInvalidRequest) || CategoryOf(err) == CategoryValidation)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return &Error{Category: CategoryNotFound, Message: Newf(format, args...).Error(), Cause: ErrNotFound}
}

// NewInvalidRequestError creates a validation error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return &Error{Category: CategoryValidation, Message: Newf(format, args...).Error(), Cause: ErrInvalidRequest}
}
