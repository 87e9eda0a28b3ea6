package utils

import (
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindBadRequest ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// ApiError is the closed error type every handler surfaces. The error
// middleware is the only place that turns one into an HTTP response.
type ApiError struct {
	Kind    ErrorKind
	Message string
	Err     error // optional cause, never shown in production
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ApiError) Unwrap() error { return e.Err }

func (e *ApiError) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func BadRequest(msg string) *ApiError   { return &ApiError{Kind: KindBadRequest, Message: msg} }
func Unauthorized(msg string) *ApiError { return &ApiError{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *ApiError    { return &ApiError{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *ApiError     { return &ApiError{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *ApiError     { return &ApiError{Kind: KindConflict, Message: msg} }

func Internal(msg string, cause error) *ApiError {
	return &ApiError{Kind: KindInternal, Message: msg, Err: cause}
}
