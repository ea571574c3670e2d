package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success HTTP response from the API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Detail)
}

func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsAuthError reports whether err is an authentication or authorization
// failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsAuthFailure reports whether a Failure was caused by bad credentials.
func IsAuthFailure(f *Failure) bool {
	return f != nil && (f.Status == http.StatusUnauthorized || f.Status == http.StatusForbidden)
}
