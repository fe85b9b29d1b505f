package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrUpstream          = errors.New("upstream error")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnavailable       = errors.New("upstream unavailable")
	ErrRateLimited       = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
//
// For upstream errors Body holds the raw upstream error body, which the
// handler relays to the caller together with StatusCode.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Body       []byte `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAuthenticationError creates a 500 error for a failed token fetch.
// Every route that needs a credential surfaces it unchanged.
func NewAuthenticationError(err error) *APIError {
	return &APIError{
		Code:       "AUTHENTICATION_FAILED",
		Message:    "failed to authenticate with upstream",
		StatusCode: http.StatusInternalServerError,
		Err:        fmt.Errorf("%w: %v", ErrAuthentication, err),
	}
}

// NewUpstreamError wraps a non-success upstream response.
// The status and body are relayed to the caller as-is.
func NewUpstreamError(statusCode int, body []byte) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("upstream returned status %d", statusCode),
		StatusCode: statusCode,
		Body:       body,
		Err:        ErrUpstream,
	}
}

// NewMalformedResponseError creates a 500 error for a success response
// whose shape could not be understood.
func NewMalformedResponseError(what string) *APIError {
	return &APIError{
		Code:       "MALFORMED_UPSTREAM_RESPONSE",
		Message:    "malformed upstream response",
		StatusCode: http.StatusInternalServerError,
		Err:        fmt.Errorf("%w: %s", ErrMalformedResponse, what),
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewUnavailableError creates a 502 error when the upstream could not be reached.
func NewUnavailableError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrUnavailable, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
func NewRateLimitError() *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    "rate limit exceeded, please retry later",
		StatusCode: http.StatusTooManyRequests,
		Err:        ErrRateLimited,
	}
}
