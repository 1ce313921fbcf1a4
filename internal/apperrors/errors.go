package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures so handlers can map them to HTTP statuses
// without inspecting error strings.
type Kind int

const (
	KindValidation    Kind = iota // missing/invalid input -> 400
	KindConfiguration             // missing credential or config -> 500
	KindUpstream                  // third-party call failed or returned nothing -> 500
	KindNotFound                  // document/share/comment absent -> 404
	KindPersistence               // datastore read/write failed -> 500
	KindForbidden                 // authenticated but not allowed -> 403
)

// Error carries a Kind alongside the message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error          { return &Error{Kind: KindValidation, Msg: msg} }
func Configuration(msg string) error       { return &Error{Kind: KindConfiguration, Msg: msg} }
func Upstream(msg string, err error) error { return &Error{Kind: KindUpstream, Msg: msg, Err: err} }
func NotFound(msg string) error            { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) error           { return &Error{Kind: KindForbidden, Msg: msg} }

func Persistence(msg string, err error) error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == k
	}
	return false
}

// HTTPStatus maps an error to the status code used by the JSON error envelope.
// Unclassified errors are treated as internal.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for the {error: ...} envelope.
// Causes are kept out of the response; they belong in logs.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal error"
}
