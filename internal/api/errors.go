package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is returned for any non-2xx response. Status and Message come from
// the server's {status, error} body when it sends one.
type Error struct {
	StatusCode int
	Status     string
	Message    string
	Method     string
	Path       string
}

func (e *Error) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message == "" {
		return fmt.Sprintf("api: %s %s: %s", e.Method, e.Path, status)
	}
	return fmt.Sprintf("api: %s %s: %s: %s", e.Method, e.Path, status, e.Message)
}

// IsNotFound reports whether err is an API error for a missing todo. The
// server answers 422 for unknown ids on the mark endpoints.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusUnprocessableEntity
}

// IsConflict reports whether err is an API error for a duplicate todo.
func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusConflict
}

// SchemaError reports a response body that does not match its schema.
type SchemaError struct {
	Schema  string
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("api: %s response: %s", e.Schema, e.Message)
	}
	return fmt.Sprintf("api: %s response at %s: %s", e.Schema, e.Path, e.Message)
}
