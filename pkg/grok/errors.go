package grok

import (
	"errors"
	"fmt"
	"time"
)

// AuthError indicates a missing, invalid, or revoked API key. It is fatal:
// retrying the same request cannot succeed.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "grok: authentication failed"
	}
	return fmt.Sprintf("grok: authentication failed: %s", e.Message)
}

// RateLimitError indicates the API rejected the request because of rate
// limiting. RetryAfter is zero when the API did not suggest a delay.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("grok: rate limited (retry after %s)", e.RetryAfter)
	}
	return "grok: rate limited"
}

// NetworkError wraps a transport-level failure (DNS, connect, TLS, body read).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("grok: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// InvalidModelError indicates the requested model identifier is not known to
// the API.
type InvalidModelError struct {
	Model string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("grok: unknown model %q", e.Model)
}

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	var rateErr *RateLimitError
	var netErr *NetworkError
	return errors.As(err, &rateErr) || errors.As(err, &netErr)
}

// IsFatal reports whether err can never succeed on retry.
func IsFatal(err error) bool {
	var authErr *AuthError
	var modelErr *InvalidModelError
	return errors.As(err, &authErr) || errors.As(err, &modelErr)
}
