// Package agenterr defines the error taxonomy for the AgentCode client.
//
// Every failure a caller can observe maps to exactly one of these types:
// NetworkError (connection failed or dropped), HTTPError (non-2xx response),
// DecodeError (one malformed frame, never fatal), RemoteTaskError (the
// backend reported a failed task) and ErrCancelled (user-initiated, not an
// error in the UI sense).
package agenterr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrCancelled marks a task that was stopped by the user. It is silent:
// callers must not surface it as a failure.
var ErrCancelled = errors.New("task cancelled by user")

// NetworkError wraps a transport-level failure that occurred before or while
// reading the response stream.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response. Message carries the backend's
// structured error detail when the body was parseable.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError reports a single malformed frame. The stream continues; the
// offending payload is preserved for logging.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RemoteTaskError reports a task the backend itself marked as failed.
type RemoteTaskError struct {
	Message string
}

func (e *RemoteTaskError) Error() string {
	if e.Message == "" {
		return "the agent task failed without details"
	}
	return e.Message
}

// IsDecodeError reports whether err is a (wrapped) DecodeError.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// IsCancelled reports whether err represents a user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsTransient reports whether an error is worth retrying at the caller
// level. Network failures and 429/5xx responses qualify; everything else,
// including remote task failures, does not.
func IsTransient(err error) bool {
	if err == nil || IsCancelled(err) {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// UserMessage converts any error into a human-readable message suitable for
// direct display. Falls back to a generic templated string when the backend
// supplied nothing useful.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var remoteErr *RemoteTaskError
	if errors.As(err, &remoteErr) {
		return remoteErr.Error()
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized:
			return "Authentication failed. Please check your backend credentials."
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return "The backend is rate limiting requests. Please wait and try again."
		case httpErr.StatusCode >= http.StatusInternalServerError:
			return "The agent backend is temporarily unavailable. Please try again."
		default:
			return fmt.Sprintf("The agent backend rejected the request (HTTP %d).", httpErr.StatusCode)
		}
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		lower := strings.ToLower(netErr.Err.Error())
		if strings.Contains(lower, "connection refused") {
			return "Cannot reach the agent backend. Please check that it is running."
		}
		if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
			return "The connection to the agent backend timed out."
		}
		return "Network error while talking to the agent backend. Please check your connection."
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return "Received a malformed update from the agent backend."
	}

	return err.Error()
}
