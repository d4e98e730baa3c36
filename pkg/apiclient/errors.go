package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the only error type the client returns. StatusCode is 0 when no
// response was received.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, format string, args ...interface{}) *Error {
	return &Error{StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

// IsConnectionError reports whether err looks like the upstream was never
// reached. Matching is on message text.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection refused", "no such host", "request failed", "dial tcp", "timeout"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
