package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the server answers 404 without an error message
	ErrNotFound = errors.New("404 not found")

	// ErrUnexpectedResponse is returned when a response body cannot be decoded
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// BackendError is an error message reported by the server in the "error"
// field of a response. Message is shown to the user verbatim.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// AsBackendError unwraps err into a *BackendError if it carries one.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
