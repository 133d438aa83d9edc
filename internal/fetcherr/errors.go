package fetcherr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Type classifies fetch failures
type Type string

const (
	TypeInvalidURL          Type = "invalid_url"
	TypeTransport           Type = "transport"
	TypeTimeout             Type = "timeout"
	TypeHTTPStatus          Type = "http_status"
	TypeRedirectNotFollowed Type = "redirect_not_followed"
	TypeCircuitOpen         Type = "circuit_open"
)

// ErrCircuitOpen is matched by errors.Is for any circuit-open failure
var ErrCircuitOpen = &Error{Type: TypeCircuitOpen}

// Error is returned by the fetch pipeline for every upstream failure
type Error struct {
	Type       Type
	Message    string
	URL        string
	StatusCode int
	Headers    http.Header
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors of the same Type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Type == t.Type
}

// Location returns the redirect target carried by a redirect error
func (e *Error) Location() string {
	if e.Headers == nil {
		return ""
	}
	return e.Headers.Get("Location")
}

func formatMessage(url, reason string) string {
	return fmt.Sprintf("Service %s responded with %s", url, reason)
}

// InvalidURL reports a missing or unparseable url
func InvalidURL(url string) *Error {
	return &Error{
		Type:       TypeInvalidURL,
		Message:    formatMessage(url, "Invalid URL "+url),
		URL:        url,
		StatusCode: http.StatusInternalServerError,
	}
}

// Transport wraps a connection-level failure; deadline errors become TypeTimeout
func Transport(url string, cause error) *Error {
	typ := TypeTransport
	if errors.Is(cause, context.DeadlineExceeded) {
		typ = TypeTimeout
	}
	return &Error{
		Type:       typ,
		Message:    formatMessage(url, cause.Error()),
		URL:        url,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Status reports a non-2xx upstream answer
func Status(url string, status int, headers http.Header) *Error {
	return &Error{
		Type:       TypeHTTPStatus,
		Message:    formatMessage(url, fmt.Sprintf("status code %d", status)),
		URL:        url,
		StatusCode: status,
		Headers:    headers,
	}
}

// Redirect reports a 3xx that was not followed
func Redirect(url string, status int, headers http.Header) *Error {
	return &Error{
		Type:       TypeRedirectNotFollowed,
		Message:    formatMessage(url, fmt.Sprintf("status code %d redirecting to %s", status, headers.Get("Location"))),
		URL:        url,
		StatusCode: status,
		Headers:    headers,
	}
}

// CircuitOpen is the synthetic failure of a request rejected by an open breaker
func CircuitOpen(url, breakerKey string) *Error {
	return &Error{
		Type:       TypeCircuitOpen,
		Message:    formatMessage(url, "circuit breaker open for "+breakerKey),
		URL:        url,
		StatusCode: http.StatusServiceUnavailable,
	}
}

// IsFallbackEligible reports whether stale cached content may stand in for the failure.
// Client errors (4xx) and redirects are authoritative answers and never are.
func IsFallbackEligible(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return err != nil
	}
	switch fe.Type {
	case TypeTransport, TypeTimeout, TypeCircuitOpen:
		return true
	case TypeHTTPStatus:
		return fe.StatusCode >= 500
	default:
		return false
	}
}

// IsUpstreamFailure reports whether the error should count against a circuit breaker
func IsUpstreamFailure(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return IsFallbackEligible(err)
}

// StatusCode extracts the status carried by err, 500 for foreign errors
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.StatusCode > 0 {
		return fe.StatusCode
	}
	if err != nil {
		return http.StatusInternalServerError
	}
	return 0
}
