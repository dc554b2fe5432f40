package web

import (
	"fmt"
	"net/http"
)

// Error is a handler failure that maps onto an HTTP status
type Error struct {
	Code    int
	Message string
}

// NewError creates a new HTTP error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("http error %d: %s", e.Code, e.Message)
}

// errNotFound is returned by handlers for unknown users, posts, groups and follows
func errNotFound(what string) *Error {
	return NewError(http.StatusNotFound, what+" not found")
}
