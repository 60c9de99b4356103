// Package apperr defines the typed failures returned by the payment engine
// and the auth subsystem, and their mapping to transport status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is the zero value: anything not classified below.
	KindInternal Kind = iota
	// KindNotFound means a referenced entity (bill, payment, split bill) is absent.
	KindNotFound
	// KindValidation means a business rule was violated.
	KindValidation
	// KindUnauthenticated means an identity token could not be decoded.
	KindUnauthenticated
	// KindDependency means the gateway or a store failed or timed out. Retryable.
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is an application error with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that the named resource does not exist.
func NotFound(resource string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

// Validation reports a business-rule violation.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated wraps a token decoding failure.
func Unauthenticated(err error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: "invalid or expired token", Err: err}
}

// Dependency wraps a failed call to the gateway or a store.
func Dependency(op string, err error) *Error {
	return &Error{Kind: KindDependency, Message: op + " failed", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the message safe to show to an API caller.
// Dependency and internal failures never leak gateway or database details.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "internal error"
	}
	switch appErr.Kind {
	case KindDependency:
		return "upstream service unavailable, please retry"
	case KindInternal:
		return "internal error"
	default:
		return appErr.Message
	}
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ConnectCode maps err to a Connect status code.
func ConnectCode(err error) connect.Code {
	switch KindOf(err) {
	case KindNotFound:
		return connect.CodeNotFound
	case KindValidation:
		return connect.CodeInvalidArgument
	case KindUnauthenticated:
		return connect.CodeUnauthenticated
	case KindDependency:
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

// ToConnect converts err into a *connect.Error carrying only the public message.
func ToConnect(err error) *connect.Error {
	return connect.NewError(ConnectCode(err), errors.New(PublicMessage(err)))
}
