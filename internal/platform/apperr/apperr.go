// Package apperr defines the error taxonomy shared by both services. Domain
// code returns *Error values; the HTTP error handler maps each Kind to a
// status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the client.
type Kind int

const (
	KindInternal Kind = iota
	KindUnprocessable
	KindBadRequest
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnprocessable:
		return "unprocessable"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Field names the offending input field when
// the error is about a single field.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Unprocessable reports malformed or semantically invalid input for field.
func Unprocessable(field, message string) *Error {
	return &Error{Kind: KindUnprocessable, Field: field, Message: message}
}

// BadRequest reports a request that cannot be acted on, such as an empty patch.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// NotFound reports a missing entity.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a store constraint violation. The cause is kept for logs.
func Conflict(message string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// WithMessage returns a copy of a conflict or not-found error carrying a
// caller-specific message, keeping kind and cause. Other errors are returned
// unchanged.
func WithMessage(err error, kind Kind, message string) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == kind {
		return &Error{Kind: e.Kind, Field: e.Field, Message: message, Err: e.Err}
	}
	return err
}
