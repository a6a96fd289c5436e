package docdb

import (
	"errors"
	"fmt"
)

// Code is a request status code.
type Code string

const (
	CodeNotFound         Code = "not-found"
	CodePermissionDenied Code = "permission-denied"
	CodeUnavailable      Code = "unavailable"
	CodeInvalidArgument  Code = "invalid-argument"
	CodeCancelled        Code = "cancelled"
	CodeInternal         Code = "internal"
)

// Error is a failed request.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("docdb: %s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StatusCode returns the code carried by err, or "" if err is not a docdb
// error.
func StatusCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
