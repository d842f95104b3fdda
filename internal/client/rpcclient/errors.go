package rpcclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/baechuer/newslink/internal/transport/http/response"
)

var (
	ErrTimeout     = errors.New("request timed out")
	ErrUnavailable = errors.New("server unavailable")
)

// Error is a typed error returned by the server.
type Error struct {
	Status    int
	Code      string
	Message   string
	Meta      map[string]string
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// CodeOf returns the server error code of err, or "" when err did not come
// from the server.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// StatusOf returns the HTTP status of a server error, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsTransient reports whether err is worth retrying: transport failures and
// the gateway-style 5xx statuses. Typed 4xx errors never are.
func IsTransient(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
		return true
	}
	switch StatusOf(err) {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Message is the human-readable text of err for notifications.
func Message(err error) string {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Message
	case errors.Is(err, ErrTimeout):
		return "Request timed out"
	case errors.Is(err, ErrUnavailable):
		return "Server unavailable"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body response.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Code != "" {
		return &Error{
			Status:    resp.StatusCode,
			Code:      body.Error.Code,
			Message:   body.Error.Message,
			Meta:      body.Error.Meta,
			RequestID: body.Error.RequestID,
		}
	}
	return &Error{
		Status:  resp.StatusCode,
		Code:    "unexpected_status",
		Message: fmt.Sprintf("unexpected status: %d", resp.StatusCode),
	}
}
