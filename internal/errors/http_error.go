package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// TransportCode is the status reported for failures below the HTTP layer.
const TransportCode = http.StatusInternalServerError

// DefaultMessage is used when the backend gives no usable message.
const DefaultMessage = "Request failed"

// APIError is the single error kind surfaced by the backend client.
// Payload holds the raw error body, when the backend sent one.
type APIError struct {
	Code    int             `json:"-"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"-"`

	transport bool
	cause     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Is matches a bare *APIError target (no message, no payload) by status code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == "" && t.Payload == nil
}

// IsClientError reports a 4xx rejection by the backend.
func (e *APIError) IsClientError() bool {
	return !e.transport && e.Code >= 400 && e.Code < 500
}

// IsServerError reports a 5xx failure returned by the backend itself.
func (e *APIError) IsServerError() bool {
	return !e.transport && e.Code >= 500
}

// IsTransport reports a synthesized error with no HTTP response behind it.
func (e *APIError) IsTransport() bool {
	return e.transport
}

// New creates an APIError with the given code and message.
func New(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// FromResponse builds the error for a non-2xx response. The message is read
// from a JSON {"message"} body; a body that is not JSON falls back to the
// status text.
func FromResponse(code int, statusText string, body []byte) *APIError {
	e := &APIError{Code: code}

	var parsed struct {
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		e.Payload = json.RawMessage(body)
		e.Message = parsed.Message
	} else {
		e.Message = statusText
		e.Payload, _ = json.Marshal(map[string]string{"message": statusText})
	}
	if e.Message == "" {
		e.Message = DefaultMessage
	}
	return e
}

// Transport wraps a failure that happened before an HTTP status was available.
func Transport(err error) *APIError {
	msg := DefaultMessage
	if err != nil {
		msg = err.Error()
	}
	return &APIError{
		Code:      TransportCode,
		Message:   msg,
		transport: true,
		cause:     err,
	}
}

// FromError normalizes any error into an *APIError. Existing API errors are
// returned unchanged, anything else becomes a transport error.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Transport(err)
}

// IsCanceled reports whether err came from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Helpers for common errors
var (
	ErrUnauthorized = func(msg string) *APIError { return New(http.StatusUnauthorized, msg) }
	ErrNotFound     = func(msg string) *APIError { return New(http.StatusNotFound, msg) }
	ErrBadRequest   = func(msg string) *APIError { return New(http.StatusBadRequest, msg) }
	ErrConflict     = func(msg string) *APIError { return New(http.StatusConflict, msg) }
)
