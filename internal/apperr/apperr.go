// Package apperr defines the error kinds shared by the IAM services.
//
// Every domain error carries a Kind (what went wrong, independent of the
// transport), a stable machine readable Code and a human message. Packages
// declare their errors as sentinels and callers compare them with errors.Is,
// which matches on Code so a re-worded or wrapped copy still matches.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	// KindNotFound means a referenced entity does not exist.
	KindNotFound Kind = "NotFound"
	// KindInvariantViolation means the operation would break a structural invariant.
	KindInvariantViolation Kind = "InvariantViolation"
	// KindInvalidInput means the parameters are malformed or incomplete.
	KindInvalidInput Kind = "InvalidInput"
	// KindConfiguration means a collaborator is missing or misconfigured. Not retried.
	KindConfiguration Kind = "ConfigurationError"
	// KindUnauthenticated means the caller has no valid session.
	KindUnauthenticated Kind = "Unauthenticated"
	// KindForbidden means the caller lacks a permission.
	KindForbidden Kind = "Forbidden"
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// New creates a sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// WithMessage returns a copy with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	out := *e
	out.Message = message

	return &out
}

// Wrap returns a copy carrying cause.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.Err = cause

	return &out
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

// KindOf returns the kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}

	return ""
}

// HTTPStatus maps an error to the status code used by the HTTP layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvariantViolation, KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
