package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies errors for HTTP mapping and propagation decisions
type Code int

const (
	// CodeInternal - downstream service failure, malformed model output, persistence failure
	CodeInternal Code = iota

	// CodeUnauthenticated - no verified caller identity
	CodeUnauthenticated

	// CodeInvalidArgument - missing or malformed required fields
	CodeInvalidArgument

	// CodeNotFound - referenced mission/user absent
	CodeNotFound
)

// String returns a human-readable code name
func (c Code) String() string {
	switch c {
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error wraps an error with a classification code
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Unauthenticated creates an authentication error
func Unauthenticated(message string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message}
}

// InvalidArgument creates a validation error
func InvalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

// NotFound creates a missing-entity error
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Internal wraps a downstream or persistence failure
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, Cause: cause}
}

// CodeOf extracts the classification from an error chain.
// Unclassified errors default to internal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error to its HTTP status code
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message safe to surface to the caller.
// Internal causes are never exposed.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
