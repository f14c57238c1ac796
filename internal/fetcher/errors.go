package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies fetch failures for retry and reporting decisions.
type ErrorKind string

const (
	KindInvalidURL      ErrorKind = "invalid_url"
	KindTimeout         ErrorKind = "timeout"
	KindNetwork         ErrorKind = "network"
	KindHTTP            ErrorKind = "http"
	KindBlockedByRobots ErrorKind = "blocked_by_robots"
	KindCancelled       ErrorKind = "cancelled"
	KindDownload        ErrorKind = "download"
)

// Error is a classified fetch failure. StatusCode is set only for KindHTTP.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHTTP:
		return fmt.Sprintf("http status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: timeouts, network
// errors, and HTTP 5xx responses. Client errors (4xx) and robots blocks
// are terminal.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindHTTP:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// NewError wraps err with a kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NewHTTPError records a non-2xx HTTP response.
func NewHTTPError(statusCode int) *Error {
	return &Error{Kind: KindHTTP, StatusCode: statusCode}
}

// Classify maps an arbitrary fetch error onto the taxonomy. Already
// classified errors pass through unchanged.
func Classify(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Err: err}
		}
		return &Error{Kind: KindNetwork, Err: err}
	}

	return &Error{Kind: KindNetwork, Err: err}
}
