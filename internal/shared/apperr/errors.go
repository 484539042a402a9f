// Package apperr defines the error kinds shared by every feature package.
// Callers match kinds with errors.Is; the HTTP layer maps them to status codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent entities and entities owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness invariant was violated.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed or policy-violating input.
	ErrValidation = errors.New("validation failed")

	// ErrExternal indicates a failure in a collaborator such as the payment
	// processor or object storage.
	ErrExternal = errors.New("external service error")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller lacks a privilege.
	ErrForbidden = errors.New("forbidden")
)

// FieldIssue describes one invalid input field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error carries a kind, a caller-facing message and optional details.
type Error struct {
	Kind    error
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds an ErrConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds an ErrValidation error with per-field details.
func Invalid(message string, issues ...FieldIssue) *Error {
	return &Error{Kind: ErrValidation, Message: message, Details: issues}
}

// External wraps a collaborator failure.
func External(err error, format string, args ...any) *Error {
	return &Error{Kind: ErrExternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// Unauthorized builds an ErrUnauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: ErrUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds an ErrForbidden error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

// Message returns the caller-facing message of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// Details returns the details attached to err, if any.
func Details(err error) any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
