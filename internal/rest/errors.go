package rest

import (
	"errors"
	"net/http"

	"marketplace-be/internal/apperr"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/utils"

	"go.uber.org/zap"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidState, apperr.PreconditionFailed, apperr.Conflict:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": msg, "details": [...]}. Unclassified
// errors are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(apperr.KindOf(err))
	if code == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", code)
		return
	}

	var ae *apperr.Error
	msg := err.Error()
	if errors.As(err, &ae) {
		msg = ae.Msg
	}
	utils.WriteJSONErrorDetails(w, msg, apperr.DetailsOf(err), code)
}

func badRequest(w http.ResponseWriter, msg string) {
	utils.WriteJSONError(w, msg, http.StatusBadRequest)
}
