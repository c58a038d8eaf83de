// Package apperror carries the client-facing error taxonomy: validation
// failures, not-found ranges, and export conflicts map to stable HTTP
// statuses while infrastructure errors pass through untouched.
package apperror

import (
	"errors"
	"net/http"
)

// Error is a status-coded error surfaced to API callers.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an error with an explicit status code
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest creates a 400 error (malformed parameters)
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unprocessable creates a 422 error (missing parameters)
func Unprocessable(message string) *Error {
	return New(http.StatusUnprocessableEntity, message)
}

// NotFound creates a 404 error (no data for a range)
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict creates a 409 error (export requested before load)
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// StatusOf returns the HTTP status for err, or 500 for anything outside
// the taxonomy (storage/cache connectivity failures propagate as fatal
// for the single operation).
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
