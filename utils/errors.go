package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// The stable error kinds the whole service speaks. Handlers translate
// anything unexpected into KindUnavailable so internals never leak.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindInvalid         ErrorKind = "invalid"
	KindExpired         ErrorKind = "expired"
	KindUnavailable     ErrorKind = "unavailable"
)

// An error with a stable kind and a human readable message. Fields is
// only set for validation failures (the joined list of bad fields).
type ApiError struct {
	Kind    ErrorKind
	Message string
	Fields  []string
}

func (e *ApiError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// The http status each kind maps to. Expired sessions are still 401;
// the caller is expected to clear whatever token produced them.
func (e *ApiError) Status() int {
	switch e.Kind {
	case KindUnauthenticated, KindExpired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(message string) *ApiError {
	return &ApiError{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *ApiError {
	return &ApiError{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *ApiError {
	return &ApiError{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *ApiError {
	return &ApiError{Kind: KindConflict, Message: message}
}

func Invalid(message string, fields ...string) *ApiError {
	return &ApiError{Kind: KindInvalid, Message: message, Fields: fields}
}

func Expired(message string) *ApiError {
	return &ApiError{Kind: KindExpired, Message: message}
}

func Unavailable(message string) *ApiError {
	return &ApiError{Kind: KindUnavailable, Message: message}
}
