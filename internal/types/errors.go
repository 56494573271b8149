package types

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or malformed field.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized covers missing, malformed or expired tokens and missing actor ids.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is shared by unknown email and wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal error")
)

// Error carries a message that is safe to show to API callers. Err, when
// set, is the underlying cause and is only meant for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func Internal(err error) error {
	return &Error{Kind: ErrInternal, Message: "Internal server error", Err: err}
}

// InvalidCredentials is returned for both unknown emails and wrong passwords.
func InvalidCredentials() error {
	return &Error{Kind: ErrInvalidCredentials, Message: "Invalid email or password"}
}

// Message returns the caller-facing text for err.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return "Internal server error"
}
