package schoolnet

import (
	"errors"
	"fmt"
	"net/http"
)

// Common static errors that can be wrapped with context.
var (
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrMissingID             = errors.New("resource id missing")
	ErrMissingAssessmentID   = errors.New("student assessment has no assessmentId")
	ErrConfigRequired        = errors.New("config is required")
	ErrBaseURLRequired       = errors.New("base URL is required")
	ErrInvalidBaseURL        = errors.New("invalid base URL")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFound           = errors.New("key not found")
	ErrEntryExpired          = errors.New("entry expired")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// AuthenticationError is returned when the token endpoint does not hand out an
// access token. Body holds the raw response.
type AuthenticationError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrAuthenticationFailed, e.StatusCode, truncate(e.Body))
}

// Unwrap lets errors.Is match ErrAuthenticationFailed.
func (e *AuthenticationError) Unwrap() error {
	return ErrAuthenticationFailed
}

// APIError represents a non-2xx response from the resource API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), truncate(e.Body))
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)

	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error is an authentication problem, either from
// the token endpoint or a 401 from the API.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrAuthenticationFailed) {
		return true
	}

	apiErr, ok := AsAPIError(err)

	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

const maxErrorBody = 512

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}

	return string(body)
}
