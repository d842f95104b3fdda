package response

import (
	"errors"
	"net/http"

	"github.com/baechuer/newslink/internal/domain"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
)

type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteError converts err into the JSON error envelope. Non-domain errors
// become a bare 500 internal_error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	payload := ErrorPayload{Code: "internal_error", Message: "internal error"}

	var de *domain.Error
	if errors.As(err, &de) {
		status = StatusFromKind(de.Kind)
		payload.Code = de.Code
		payload.Message = de.Message
		payload.Meta = de.Meta
	}
	payload.RequestID = appCtx.GetRequestID(r.Context())

	if rl := retryAfter(de); rl != "" {
		w.Header().Set("Retry-After", rl)
	}
	WriteJSON(w, status, ErrorBody{Error: payload})
}

// StatusFromKind maps domain error kinds to HTTP status codes.
func StatusFromKind(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func retryAfter(de *domain.Error) string {
	if de == nil || de.Kind != domain.KindRateLimited {
		return ""
	}
	return de.Meta["retry_after_seconds"]
}
