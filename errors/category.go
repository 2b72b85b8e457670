package errors

import "fmt"

// Category classifies an error for callers that need to branch on the kind
// of failure (HTTP status mapping, degrade-vs-propagate decisions).
type Category string

const (
	// CategoryDatabase: a storage round trip failed or the driver returned an error
	CategoryDatabase Category = "database"
	// CategoryNotFound: zero rows for a single-item lookup
	CategoryNotFound Category = "not_found"
	// CategoryNetwork: an outbound HTTP call failed at the transport level
	CategoryNetwork Category = "network"
	// CategoryExternalAPI: a third-party provider returned non-2xx or a malformed payload
	CategoryExternalAPI Category = "external_api"
	// CategoryValidation: malformed caller input
	CategoryValidation Category = "validation"
	// CategoryConfiguration: missing or malformed configuration
	CategoryConfiguration Category = "configuration"
	// CategoryInternal: anything uncategorized
	CategoryInternal Category = "internal"
)

// Error is the structured error surfaced by the data access layer.
// Cause keeps the original driver or transport error for errors.Is/As.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// CategoryOf returns the category of the first *Error in err's chain.
// Errors outside the taxonomy report CategoryInternal; nil reports "".
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var e *Error
	if As(err, &e) {
		return e.Category
	}
	if Is(err, ErrInvalidCredentials) {
		return CategoryConfiguration
	}
	return CategoryInternal
}

func newCategorized(c Category, cause error, format string, args []interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return WithStack(&Error{Category: c, Message: msg, Cause: cause})
}

// Database wraps a storage failure.
func Database(cause error, format string, args ...interface{}) error {
	return newCategorized(CategoryDatabase, cause, format, args)
}

// NotFound reports a missing single item.
func NotFound(format string, args ...interface{}) error {
	return newCategorized(CategoryNotFound, ErrNotFound, format, args)
}

// Network wraps an outbound transport failure.
func Network(cause error, format string, args ...interface{}) error {
	return newCategorized(CategoryNetwork, cause, format, args)
}

// ExternalAPI reports a provider-side failure (non-2xx, malformed body).
func ExternalAPI(cause error, format string, args ...interface{}) error {
	return newCategorized(CategoryExternalAPI, cause, format, args)
}

// Validation reports malformed input.
func Validation(format string, args ...interface{}) error {
	return newCategorized(CategoryValidation, ErrInvalidRequest, format, args)
}

// Configuration reports missing or malformed configuration.
func Configuration(cause error, format string, args ...interface{}) error {
	return newCategorized(CategoryConfiguration, cause, format, args)
}

// Internal wraps anything that fits no other category.
func Internal(cause error, format string, args ...interface{}) error {
	return newCategorized(CategoryInternal, cause, format, args)
}
