package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is returned for any non-2xx response from the backend.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
}

// Error returns the backend-provided message, or "HTTP <status>" when the
// response carried no parseable message.
func (e *Error) Error() string {
	return e.Message
}

// errorBody is the structured error payload the backend sends.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Status:  status,
		Method:  method,
		Path:    path,
		Message: fmt.Sprintf("HTTP %d", status),
	}

	var payload errorBody
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			e.Message = payload.Message
		case payload.Error != "":
			e.Message = payload.Error
		}
	}

	return e
}

// IsAuthError reports whether err (or any error in its chain) is a 401
// from the backend.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// StatusCode extracts the HTTP status from err, or 0 for transport errors.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
