package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/therapistdirectory/pkg/errors"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps service errors to a status code. Server-side
// failures are logged and their details withheld.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondWithError(w, status, http.StatusText(status))
		return
	}

	message := err.Error()
	if appErr, ok := apperrors.As(err); ok {
		message = appErr.Message
	}
	respondWithError(w, status, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body: " + err.Error())
	}
	return nil
}
