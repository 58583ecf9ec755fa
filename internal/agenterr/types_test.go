package agenterr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "network error: connection reset",
		(&NetworkError{Err: errors.New("connection reset")}).Error())

	assert.Equal(t, "backend returned 503 Service Unavailable",
		(&HTTPError{StatusCode: http.StatusServiceUnavailable}).Error())
	assert.Equal(t, "backend returned 422: instruction must not be empty",
		(&HTTPError{StatusCode: 422, Message: "instruction must not be empty"}).Error())

	assert.Equal(t, "the agent task failed without details",
		(&RemoteTaskError{}).Error())
	assert.Equal(t, "planner produced no steps",
		(&RemoteTaskError{Message: "planner produced no steps"}).Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")

	assert.True(t, errors.Is(&NetworkError{Err: cause}, cause))
	assert.True(t, errors.Is(&DecodeError{Err: cause}, cause))

	wrapped := fmt.Errorf("starting task: %w", &DecodeError{Payload: "{", Err: cause})
	assert.True(t, IsDecodeError(wrapped))
	assert.False(t, IsDecodeError(cause))
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(fmt.Errorf("wrapped: %w", ErrCancelled)))
	assert.False(t, IsCancelled(errors.New("other")))
	assert.False(t, IsCancelled(nil))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", ErrCancelled, false},
		{"network error", &NetworkError{Err: errors.New("refused")}, true},
		{"rate limited", &HTTPError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &HTTPError{StatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", &HTTPError{StatusCode: http.StatusBadGateway}, true},
		{"client error", &HTTPError{StatusCode: http.StatusUnprocessableEntity}, false},
		{"unauthorized", &HTTPError{StatusCode: http.StatusUnauthorized}, false},
		{"remote task failure", &RemoteTaskError{Message: "gave up"}, false},
		{"decode error", &DecodeError{Err: errors.New("bad json")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"remote message passes through",
			&RemoteTaskError{Message: "planner produced no steps"},
			"planner produced no steps"},
		{"http message passes through",
			&HTTPError{StatusCode: 422, Message: "instruction must not be empty"},
			"instruction must not be empty"},
		{"unauthorized template",
			&HTTPError{StatusCode: http.StatusUnauthorized},
			"Authentication failed. Please check your backend credentials."},
		{"rate limit template",
			&HTTPError{StatusCode: http.StatusTooManyRequests},
			"The backend is rate limiting requests. Please wait and try again."},
		{"server error template",
			&HTTPError{StatusCode: http.StatusBadGateway},
			"The agent backend is temporarily unavailable. Please try again."},
		{"other status template",
			&HTTPError{StatusCode: http.StatusNotFound},
			"The agent backend rejected the request (HTTP 404)."},
		{"connection refused",
			&NetworkError{Err: errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")},
			"Cannot reach the agent backend. Please check that it is running."},
		{"timeout",
			&NetworkError{Err: errors.New("context deadline exceeded")},
			"The connection to the agent backend timed out."},
		{"generic network",
			&NetworkError{Err: errors.New("broken pipe")},
			"Network error while talking to the agent backend. Please check your connection."},
		{"decode error",
			&DecodeError{Payload: "{", Err: errors.New("unexpected end")},
			"Received a malformed update from the agent backend."},
		{"unknown error passes through",
			errors.New("something else"),
			"something else"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
