package clients

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// StatusError reports a non-2xx response from a marketplace API. It aborts
// the remainder of that target's sync; the orchestrator decides whether to
// continue with the next target.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("marketplace API error (status %d) for %s: %s", e.Status, e.URL, e.Body)
}

// ParseError reports a feed value that could not be interpreted
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q", e.Field, e.Value)
}

// IsTimeout reports whether err is a network timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnectionError reports whether err is a connection-level failure
// (refused, reset, unreachable) rather than a timeout or an API error
func IsConnectionError(err error) bool {
	if IsTimeout(err) {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
