// Package apperr carries the error kinds every service returns. Handlers turn
// a kind into an HTTP status through a single table.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// statusByKind is the only place where error kinds meet HTTP.
// Not-found stays in the bad-request class on purpose.
var statusByKind = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindValidation:      http.StatusBadRequest,
	KindNotFound:        http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
}

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// InvalidFields reports field-level validation failures.
func InvalidFields(fields map[string]string) error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// NotFound builds "<what> not found".
func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Internal wraps an unexpected failure. Its cause is logged, never shown.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain; plain errors
// count as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	if status, ok := statusByKind[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text a client may see. Internal errors are masked.
func PublicMessage(err error) (string, map[string]string) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "Internal server error", nil
	}
	return e.Message, e.Fields
}
