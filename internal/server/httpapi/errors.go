package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
)

const detailBadCredentials = "Could not validate credentials"

// statusOf maps an error to an HTTP status and the detail shown to the client.
// Details carried by common.DetailError win over the defaults, except for
// 500s, which never leak internals.
func statusOf(err error) (int, string) {
	var (
		status int
		detail string
	)
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrMissingSubject):
		status, detail = http.StatusUnauthorized, detailBadCredentials
	case errors.Is(err, common.ErrInactiveAccount),
		errors.Is(err, common.ErrMalformedInput),
		errors.Is(err, common.ErrConflict):
		status, detail = http.StatusBadRequest, "Bad request"
	case errors.Is(err, common.ErrorNotFound):
		status, detail = http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}

	if d := common.DetailOf(err); d != "" {
		detail = d
	}
	return status, detail
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusOf(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
