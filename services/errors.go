package services

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a service failure so the HTTP layer can map it to a
// status in one place.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "not_found"
	CodeBadRequest   ErrorCode = "bad_request"
	CodeUnauthorized ErrorCode = "unauthorized"
	CodeForbidden    ErrorCode = "forbidden"
	CodeConflict     ErrorCode = "conflict"
	CodeInternal     ErrorCode = "internal"
)

// Error is a coded service error with a client-safe message.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newError(CodeNotFound, format, args...)
}

func BadRequestf(format string, args ...interface{}) *Error {
	return newError(CodeBadRequest, format, args...)
}

func Unauthorizedf(format string, args ...interface{}) *Error {
	return newError(CodeUnauthorized, format, args...)
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return newError(CodeForbidden, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newError(CodeConflict, format, args...)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// anything outside the taxonomy.
func CodeOf(err error) ErrorCode {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return CodeInternal
}
