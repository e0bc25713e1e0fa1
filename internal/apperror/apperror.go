// Package apperror defines the error taxonomy shared by the service layer and the HTTP boundary.
package apperror

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindInternal       Kind = "internal"
)

// Error is an error with a stable, client-safe message and an HTTP status.
type Error struct {
	kind    Kind
	status  int
	message string
	cause   error
}

// New creates an application error.
func New(kind Kind, status int, message string) *Error {
	return &Error{kind: kind, status: status, message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches errors of the same kind and message, so wrapped copies still match the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind && e.message == t.message
}

func (e *Error) Kind() Kind      { return e.kind }
func (e *Error) Status() int     { return e.status }
func (e *Error) Message() string { return e.message }

// WithCause returns a copy of e carrying cause. The cause is never shown to clients.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// Predefined errors. Conflict and not-found map to 400 to stay compatible with existing clients.
var (
	ErrMissingCredentials = New(KindValidation, http.StatusBadRequest, "Email and password are required")
	ErrMissingTodoFields  = New(KindValidation, http.StatusBadRequest, "Title and description are required")
	ErrInvalidBody        = New(KindValidation, http.StatusBadRequest, "Invalid request body")
	ErrUserExists         = New(KindConflict, http.StatusBadRequest, "User already exists")
	ErrUserNotFound       = New(KindNotFound, http.StatusBadRequest, "User not found")
	ErrInvalidPassword    = New(KindAuthentication, http.StatusBadRequest, "Invalid password")
	ErrUnauthorized       = New(KindAuthentication, http.StatusUnauthorized, "Unauthorized")
	ErrInternal           = New(KindInternal, http.StatusInternalServerError, "Internal server error")
)

// From resolves err to an application error. Anything unrecognised becomes ErrInternal
// with the original error attached as its cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.WithCause(err)
}
