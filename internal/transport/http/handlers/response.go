package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vedran77/dmcore/internal/observability"
	"github.com/vedran77/dmcore/internal/service"
	apperr "github.com/vedran77/dmcore/pkg/errors"
	"github.com/vedran77/dmcore/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":    "VALIDATION_ERROR",
			"message": "Validation failed",
			"fields":  errs,
		},
	})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument, apperr.CodeInvalidParticipant:
		return http.StatusBadRequest
	case apperr.CodePermissionDenied, apperr.CodeBlocked:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInconsistent:
		return http.StatusConflict
	case apperr.CodeTransientIO:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeAppError renders a service error. Anything that is not a client error
// is logged and its cause hidden from the caller.
func writeAppError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var app *apperr.AppError
	if !errors.As(err, &app) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg(op)
		writeError(w, http.StatusInternalServerError, string(apperr.CodeInternal), "Something went wrong")
		return
	}

	status := statusFor(app.Code)
	switch status {
	case http.StatusServiceUnavailable, http.StatusConflict:
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("code", string(app.Code)).Msg(op)
		writeError(w, status, string(app.Code), "Temporarily unavailable, please retry")
	case http.StatusInternalServerError:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg(op)
		writeError(w, status, string(apperr.CodeInternal), "Something went wrong")
	default:
		writeError(w, status, string(app.Code), app.Message)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

const maxBodyBytes = 1 << 20

func logBulkFailure(r *http.Request, res service.ItemResult) {
	observability.LoggerFromContext(r.Context()).Warn().Err(res.Err).
		Str("message_id", res.ID.String()).
		Msg("bulk item failed")
}
