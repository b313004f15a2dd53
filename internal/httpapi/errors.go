package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/processor"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// statusFor maps domain errors to HTTP codes. Translation input problems
// are the client's, other translation failures are the upstream provider's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, models.ErrTranslation):
		return http.StatusBadGateway
	case errors.Is(err, processor.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *implHandler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		h.logger.Debug(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, code, err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
