package response

import (
	"errors"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/booking-service/internal/pkg/context"
	zlog "github.com/rs/zerolog/log"
)

// Err writes the error envelope for err. AppErrors keep their code and
// message; anything else is logged and surfaced as internal_error.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	requestID := RequestID(r)

	var ae *domain.AppError
	if errors.As(err, &ae) {
		Fail(w, StatusFromCode(ae.Code), string(ae.Code), ae.Message, ae.Meta, requestID)
		return
	}

	// keep details in logs only
	zlog.Error().Err(err).Str("request_id", requestID).Str("path", r.URL.Path).Msg("unhandled error")
	Fail(w, http.StatusInternalServerError, "internal_error", "internal error", nil, requestID)
}

func StatusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeInvalidData:
		return http.StatusBadRequest
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidOperation, domain.CodeInsufficientInventory, domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RequestID prefers the id stored by the RequestID middleware and falls
// back to the inbound header.
func RequestID(r *http.Request) string {
	if id := appCtx.GetRequestID(r.Context()); id != "" {
		return id
	}
	if v := r.Header.Get("X-Request-Id"); v != "" {
		return v
	}
	return r.Header.Get("X-Request-ID")
}
