package geminilive

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/gorilla/websocket"
)

// ErrUnavailable matches errors reporting that the Live API is temporarily
// saturated and the call can be retried later.
var ErrUnavailable = errors.New("geminilive: service unavailable")

// Close codes used by the Live API.
const (
	// CloseTryAgainLater is sent when the service is overloaded.
	CloseTryAgainLater = 1013
)

// Error represents an API error from the Live API: a failed handshake or an
// abnormal close of the session.
type Error struct {
	// Code is the HTTP status code of a failed handshake, if any.
	Code int `json:"code,omitzero"`

	// Status is the canonical status name (e.g., "UNAVAILABLE").
	Status string `json:"status,omitzero"`

	// CloseCode is the WebSocket close code of an abnormal close, if any.
	CloseCode int `json:"close_code,omitzero"`

	// Message is the human-readable error message or close reason.
	Message string `json:"message,omitzero"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.CloseCode != 0:
		return fmt.Sprintf("geminilive: closed %d: %s", e.CloseCode, e.Message)
	case e.Status != "":
		return fmt.Sprintf("geminilive: %s: %s", e.Status, e.Message)
	case e.Code != 0:
		return fmt.Sprintf("geminilive: http %d: %s", e.Code, e.Message)
	}
	return "geminilive: " + e.Message
}

// Is makes errors.Is(err, ErrUnavailable) report retryable overload.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable && e.unavailable()
}

func (e *Error) unavailable() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Status == "UNAVAILABLE" ||
		e.CloseCode == CloseTryAgainLater ||
		mentionsUnavailable(e.Message)
}

// IsUnavailable reports whether err means the service is temporarily
// saturated. It understands this package's errors, raw WebSocket close
// errors, and Google API errors from the genai SDK.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == CloseTryAgainLater || mentionsUnavailable(ce.Text)
	}
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if ae.HTTPCode() == http.StatusServiceUnavailable {
			return true
		}
	}
	return mentionsUnavailable(err.Error())
}

func mentionsUnavailable(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "unavailable") || strings.Contains(s, "overloaded")
}

// closeError converts a WebSocket read error into a session error. It
// returns nil for a normal close, which ends the event stream cleanly.
func closeError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return nil
		}
		return &Error{CloseCode: ce.Code, Message: ce.Text}
	}
	return fmt.Errorf("geminilive: read error: %w", err)
}
