package homeassistant

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means neither Supervisor nor direct mode is configured.
	ErrNotConfigured = errors.New("set HA_BASE_URL and HA_TOKEN for local mode")
	// ErrBaseURLMissing means direct mode has no base URL for WebSocket use.
	ErrBaseURLMissing = errors.New("HA_BASE_URL missing for local mode")
	// ErrWSTokenMissing means no token is available to authenticate the WebSocket.
	ErrWSTokenMissing = errors.New("need HA_TOKEN or SUPERVISOR_TOKEN to auth WebSocket")
	// ErrSupervisorOnly marks Supervisor APIs called outside add-on mode.
	ErrSupervisorOnly = errors.New("supervisor API only available in Supervisor mode")
	// ErrAuthInvalid is returned when Home Assistant rejects WebSocket auth.
	ErrAuthInvalid = errors.New("WS auth_invalid")
	// ErrWSClosed is returned when the socket closes before the command result.
	ErrWSClosed = errors.New("WebSocket closed before result")
)

// HTTPError is a non-2xx response from a Home Assistant or Supervisor API.
type HTTPError struct {
	API        string
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	api := e.API
	if api == "" {
		api = "HA"
	}
	msg := fmt.Sprintf("%s %s %s failed: %s", api, e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// WSError is an unsuccessful WebSocket command result.
type WSError struct {
	Command string
	Code    string
	Message string
}

func (e *WSError) Error() string {
	message := e.Message
	if message == "" {
		message = "WS command failed"
	}
	if e.Code == "" {
		return message
	}
	return fmt.Sprintf("%s (%s)", message, e.Code)
}
