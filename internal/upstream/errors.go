package upstream

import (
	"errors"
	"fmt"
)

// ErrUnresolvedPlaceholder is returned when an endpoint template still has a
// #token after substitution. It is a caller error and never retried.
var ErrUnresolvedPlaceholder = errors.New("unresolved endpoint placeholder")

// ErrorKind classifies a NetworkError.
type ErrorKind string

const (
	// KindConnection covers DNS failures, refused connections and timeouts.
	KindConnection ErrorKind = "connection"
	// KindHTTP is a non-2xx status other than 404.
	KindHTTP ErrorKind = "http"
)

// NetworkError reports a failed upstream exchange.
type NetworkError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("upstream http error: status %d for %s", e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream connection error for %s: %v", e.URL, e.Err)
	}
	return "upstream connection error for " + e.URL
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is a connection-kind NetworkError.
func IsConnectionError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Kind == KindConnection
}

// IsHTTPError reports whether err is an http-kind NetworkError, returning the status.
func IsHTTPError(err error) (int, bool) {
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Kind == KindHTTP {
		return netErr.StatusCode, true
	}
	return 0, false
}
