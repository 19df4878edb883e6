package errors

import (
	"errors"
	"fmt"
)

// AppError is a structured error carrying a stable code and a message
// suitable for rendering directly on the caller's terminal.
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Internal error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Errors shared across the board. Capacity errors are expected and
// user-visible; the session renders the message and returns to a stable
// state rather than dropping the connection.
var (
	ErrAllLinesBusy = &AppError{
		Code:    "node.all_lines_busy",
		Message: "All lines busy -- please try again later",
	}

	ErrRoomFull = &AppError{
		Code:    "chat.room_full",
		Message: "Chat room is at capacity. Please try again later.",
	}

	ErrInvalidCredentials = &AppError{
		Code:    "auth.invalid_credentials",
		Message: "Invalid handle or password",
	}

	ErrAccountLocked = &AppError{
		Code:    "auth.locked_out",
		Message: "Account locked due to too many failed attempts. Please try again later.",
	}

	ErrNotFound = &AppError{
		Code:    "not_found",
		Message: "Resource not found",
	}

	ErrInternal = &AppError{
		Code:    "internal",
		Message: "Internal error",
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap turns any error into an AppError while keeping the original for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:     "internal",
		Message:  message,
		Internal: err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternal.WithInternal(err)
}
