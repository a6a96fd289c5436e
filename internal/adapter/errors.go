package adapter

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes backend failures.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the addressed record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePermissionDenied indicates the backend's access rules rejected
	// the read or write.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeUnavailable indicates a transport failure. The backend retries
	// listeners on its own.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"

	// ErrCodeInvalidArgument indicates a malformed path, id or payload.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnknown covers anything the variant could not classify.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// Error is a classified backend failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the adapter operation: "subscribe", "create", "update" or "delete".
	Op string

	// Path is the collection or node path.
	Path string

	// ID is the record id, when the operation addressed one.
	ID string

	// Err is the backend's own error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	target := e.Path
	if e.ID != "" {
		target = e.Path + "/" + e.ID
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, target, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, target, e.Code)
}

// Unwrap returns the backend error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(code ErrorCode, op, path, id string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, ID: id, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeUnknown. A nil err has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeUnknown
}

// IsNotFound reports whether err is a NOT_FOUND adapter error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsPermissionDenied reports whether err is a PERMISSION_DENIED adapter error.
func IsPermissionDenied(err error) bool {
	return CodeOf(err) == ErrCodePermissionDenied
}

// IsUnavailable reports whether err is an UNAVAILABLE adapter error.
func IsUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeUnavailable
}
