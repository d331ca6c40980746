package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is matched by a 404 StatusError
	ErrNotFound = errors.New("tmdb: resource not found")
	// ErrUpstreamAuth is matched by a 401 StatusError
	ErrUpstreamAuth = errors.New("tmdb: authentication failed")
	// ErrTransientNetwork classifies connection resets, the only retried failure
	ErrTransientNetwork = errors.New("tmdb: connection reset")
	// ErrUpstream is returned once the retry budget is spent
	ErrUpstream = errors.New("tmdb: max retries exceeded")
)

// StatusError is returned for any non-2xx catalog response
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s returned status %d", e.Path, e.StatusCode)
}

// Is lets callers test the status class with errors.Is
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUpstreamAuth:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// StatusCode extracts the upstream HTTP status from err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
