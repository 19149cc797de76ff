// Package domainerrors defines the coded error taxonomy shared by repositories,
// the request coordinator and the HTTP layer.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error. The coordinator converts codes to HTTP statuses.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeDependencyConflict Code = "dependency_conflict"
	CodeStoreConflict      Code = "store_conflict"
	CodeUnavailable        Code = "unavailable"
	CodeRateLimited        Code = "rate_limited"
	CodeMethodNotAllowed   Code = "method_not_allowed"
	CodeInternal           Code = "internal_error"
)

// Error is a coded error with a caller-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and a caller-safe message to err.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// From extracts the outermost coded error from err's chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	de, ok := From(err)
	return ok && de.Code == code
}

// ToHTTPStatus maps a code onto the status returned to callers. Store conflicts
// and outages are server-side failures and share 500; their messages differ.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeDependencyConflict:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show untrusted callers.
// Uncoded errors and internal errors never expose their text.
func PublicMessage(err error) string {
	de, ok := From(err)
	if !ok || de.Code == CodeInternal || de.Message == "" {
		return "Internal server error"
	}
	return de.Message
}

// Status returns the HTTP status for err, defaulting to 500 for uncoded errors.
func Status(err error) int {
	de, ok := From(err)
	if !ok {
		return http.StatusInternalServerError
	}
	return ToHTTPStatus(de.Code)
}
