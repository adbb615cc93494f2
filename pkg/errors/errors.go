package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindCredentialRejected
	KindInactivePrincipal
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindRateLimited
)

var kindStatus = map[Kind]int{
	KindInternal:           http.StatusInternalServerError,
	KindCredentialRejected: http.StatusUnauthorized,
	KindInactivePrincipal:  http.StatusBadRequest,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusBadRequest,
	KindValidation:         http.StatusUnprocessableEntity,
	KindRateLimited:        http.StatusTooManyRequests,
}

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind and code so sentinel comparisons survive Clone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New creates a new Error instance.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: kind.Status(), Message: message}
}

// Wrap attaches context to an existing error, keeping the kind of base.
func Wrap(err error, base *Error, message string) *Error {
	wrapped := Clone(base, message)
	wrapped.Err = err
	return wrapped
}

// Predefined errors for common scenarios.
var (
	ErrCredentialsRejected = New(KindCredentialRejected, "CREDENTIALS_REJECTED", "could not validate credentials")
	ErrInvalidLogin        = New(KindCredentialRejected, "INVALID_CREDENTIALS", "incorrect email or password")
	ErrInactivePrincipal   = New(KindInactivePrincipal, "INACTIVE_USER", "inactive user")
	ErrForbidden           = New(KindForbidden, "FORBIDDEN", "not authorized to perform this action")
	ErrNotFound            = New(KindNotFound, "NOT_FOUND", "resource not found")
	ErrConflict            = New(KindConflict, "CONFLICT", "resource already exists")
	ErrValidation          = New(KindValidation, "VALIDATION_ERROR", "validation failed")
	ErrRateLimited         = New(KindRateLimited, "RATE_LIMITED", "too many requests")
	ErrInternal            = New(KindInternal, "INTERNAL_ERROR", "internal server error")
	ErrCacheMiss           = New(KindNotFound, "CACHE_MISS", "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, ErrInternal.Message)
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
