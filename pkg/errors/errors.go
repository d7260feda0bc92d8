package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
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

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnavailable        = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Report lifecycle guard failures. All of them mean the caller's view of the
	// report is outdated and the request should not be repeated as-is.
	ErrReportDone        = New("REPORT_DONE", http.StatusBadRequest, "report is already resolved")
	ErrReportRejected    = New("REPORT_REJECTED", http.StatusBadRequest, "report is already rejected")
	ErrAlreadyReceived   = New("ALREADY_RECEIVED", http.StatusBadRequest, "report is already received")
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusBadRequest, "invalid status transition")

	ErrReplicaUnavailable = New("REPLICA_UNAVAILABLE", http.StatusBadRequest, "replica database is not configured")
)

var transitionCodes = map[string]struct{}{
	ErrReportDone.Code:        {},
	ErrReportRejected.Code:    {},
	ErrAlreadyReceived.Code:   {},
	ErrInvalidTransition.Code: {},
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
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

// HasCode reports whether err is a typed error carrying the given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// IsTransitionError reports whether err belongs to the invalid state transition family.
func IsTransitionError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	_, ok := transitionCodes[e.Code]
	return ok
}
