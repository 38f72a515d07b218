package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an mdc error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidDuration    ErrorCode = "INVALID_DURATION"    // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrLocalMode          ErrorCode = "LOCAL_MODE"          // 409
	ErrRemoteRejected     ErrorCode = "REMOTE_REJECTED"     // upstream status
	ErrRemoteUnreachable  ErrorCode = "REMOTE_UNREACHABLE"  // 502
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE" // 503
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidDuration creates a 400 error for a duration that is neither HH:MM:SS nor MM:SS.
func NewInvalidDuration(raw string) *Error {
	return &Error{
		Code:    ErrInvalidDuration,
		Status:  400,
		Message: "Revisá la duración: usá HH:MM:SS (00:29:05) o MM:SS (29:05).",
		Details: map[string]any{"duracion": raw},
	}
}

// NewNotFound creates a 404 error for when a training entry cannot be found.
func NewNotFound(id string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entrenamiento no encontrado: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing export file.
func NewFileNotFound(path string) *Error {
	return &Error{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates an error for an operation stopped by its context.
func NewCancelled(op string) *Error {
	return &Error{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewLocalMode creates the error returned by remote mutations while local mode is forced.
func NewLocalMode() *Error {
	return &Error{
		Code:    ErrLocalMode,
		Status:  409,
		Message: "local mode",
	}
}

// NewRemoteRejected creates an error for a non-success response from the API.
// The message is the one supplied by the server when present.
func NewRemoteRejected(status int, msg string) *Error {
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{
		Code:    ErrRemoteRejected,
		Status:  status,
		Message: msg,
		Details: map[string]any{"http_status": status},
	}
}

// NewRemoteUnreachable creates a 502 error for transport or decoding failures.
func NewRemoteUnreachable(err error) *Error {
	msg := "api unreachable"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrRemoteUnreachable,
		Status:  502,
		Message: msg,
	}
}

// NewStorageUnavailable creates a 503 error for when both the remote and the
// local store failed the same operation.
func NewStorageUnavailable(op string, remoteErr, localErr error) *Error {
	details := map[string]any{"op": op}
	if remoteErr != nil {
		details["remote"] = remoteErr.Error()
	}
	if localErr != nil {
		details["local"] = localErr.Error()
	}
	return &Error{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: fmt.Sprintf("%s failed on api and local storage: %v", op, localErr),
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As extracts an *Error from err, converting anything else into an internal error.
func As(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return NewInternal(err)
}
