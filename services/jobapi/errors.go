package jobapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("job api unreachable")
	// ErrSessionExpired is returned before any network call when the session
	// token has already expired.
	ErrSessionExpired = errors.New("session expired, please sign in again")
)

// APIError is a non-2xx response from the job API.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %d %s", e.Endpoint, e.Status, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
