package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized marks a backend response that rejected the current
	// credential. It is the only failure that forces a session clear.
	ErrUnauthorized = errors.New("credential rejected")

	// ErrNoSession is returned by operations that need an established
	// session when none is present.
	ErrNoSession = errors.New("no active session")
)

// APIError carries the backend's human-readable failure message alongside
// the HTTP status that produced it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// ErrorMessage extracts the server-provided message from err, falling back
// to fallback when the failure carries none (transport errors, empty
// envelopes). Used to convert call failures into Result values.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
