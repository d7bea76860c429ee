package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
)

const (
	maxBodyBytes = 1 << 20

	msgValidation   = "Validation errors"
	msgInternal     = "An unexpected error occurred. Please try again later!"
	msgInvalidBody  = "Invalid JSON body!"
	msgUnauthorized = "Missing or invalid access token!"
	msgExpiredToken = "Access token has expired!"
)

// errorResponses is checked in order; the first match wins.
var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrTokenTaken, http.StatusConflict, "Custom short link is already taken!"},
	{services.ErrLinkNotFound, http.StatusNotFound, "Short link not found!"},
	{services.ErrNoLinks, http.StatusNotFound, "You didn't create a short link yet!"},
	{services.ErrNotOwner, http.StatusForbidden, "You are not authorized to view these statistics!"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password!"},
	{services.ErrUnknownOwner, http.StatusUnauthorized, msgUnauthorized},
	{domain.ErrConflict, http.StatusConflict, "Conflict!"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found!"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden!"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, msgUnauthorized},
}

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

func writeInternal(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, envelope{"message": msgInternal})
}

// writeError maps an error kind to its response. Unknown errors are logged
// and answered with a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, envelope{
			"success": false,
			"message": msgValidation,
			"errors":  verr.ByField(),
		})
		return
	}

	for _, e := range errorResponses {
		if errors.Is(err, e.err) {
			writeFailure(w, e.status, e.message)
			return
		}
	}

	log.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeInternal(w)
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
