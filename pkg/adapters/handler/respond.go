package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// respondError maps the domain taxonomy onto the wire. Anything outside it
// becomes an opaque 500, logged with the request's correlation id.
func respondError(log *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var nf *domain.NotFoundError
	var ve *domain.ValidationError

	switch {
	case errors.As(err, &nf):
		writeMsg(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &ve):
		writeMsg(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrQuotaExceeded),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrSeedInProgress):
		writeMsg(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", correlationIDFromContext(r.Context())),
			zap.Error(err))
		writeMsg(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
