package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		statusText  string
		body        string
		wantMessage string
		wantPayload string
	}{
		{
			name:        "json message",
			code:        http.StatusConflict,
			statusText:  "Conflict",
			body:        `{"message":"slot already booked"}`,
			wantMessage: "slot already booked",
			wantPayload: `{"message":"slot already booked"}`,
		},
		{
			name:        "json without message",
			code:        http.StatusBadRequest,
			statusText:  "Bad Request",
			body:        `{"errors":["email"]}`,
			wantMessage: DefaultMessage,
			wantPayload: `{"errors":["email"]}`,
		},
		{
			name:        "html body falls back to status text",
			code:        http.StatusBadGateway,
			statusText:  "Bad Gateway",
			body:        `<html>bad gateway</html>`,
			wantMessage: "Bad Gateway",
			wantPayload: `{"message":"Bad Gateway"}`,
		},
		{
			name:        "empty body and empty status text",
			code:        http.StatusTeapot,
			statusText:  "",
			body:        "",
			wantMessage: DefaultMessage,
			wantPayload: `{"message":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.code, tt.statusText, []byte(tt.body))
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.JSONEq(t, tt.wantPayload, string(err.Payload))
			assert.False(t, err.IsTransport())
		})
	}
}

func TestClassification(t *testing.T) {
	assert.True(t, New(http.StatusNotFound, "missing").IsClientError())
	assert.False(t, New(http.StatusNotFound, "missing").IsServerError())
	assert.True(t, New(http.StatusServiceUnavailable, "down").IsServerError())

	tr := Transport(fmt.Errorf("dial tcp: connection refused"))
	assert.Equal(t, TransportCode, tr.Code)
	assert.True(t, tr.IsTransport())
	assert.False(t, tr.IsServerError())
	assert.Equal(t, "dial tcp: connection refused", tr.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	original := New(http.StatusUnauthorized, "expired")
	wrapped := fmt.Errorf("load profile: %w", original)
	assert.Same(t, original, FromError(wrapped))

	cause := errors.New("boom")
	normalized := FromError(cause)
	require.NotNil(t, normalized)
	assert.Equal(t, http.StatusInternalServerError, normalized.Code)
	assert.Equal(t, "boom", normalized.Message)
	assert.ErrorIs(t, normalized, cause)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrNotFound("booking not found"))
	assert.ErrorIs(t, err, New(http.StatusNotFound, ""))
	assert.NotErrorIs(t, err, New(http.StatusConflict, ""))
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(context.Canceled))
	assert.True(t, IsCanceled(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	assert.False(t, IsCanceled(errors.New("other")))
}
