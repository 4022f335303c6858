package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/satheeshds/invoicing/auth"
	"github.com/satheeshds/invoicing/models"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Unexpected errors
// are logged and reported as 500 without leaking details.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidLink),
		errors.Is(err, models.ErrSignatureInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrAlreadyPaid), errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrPaymentIncomplete):
		status = http.StatusConflict
	case errors.Is(err, models.ErrLinkExpired):
		status = http.StatusGone
	case errors.Is(err, models.ErrProviderUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, models.ErrAmountOutOfRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// AuthConfig holds the admin credentials. Basic auth and JWT bearer tokens
// are each enabled when configured.
type AuthConfig struct {
	User      string
	Pass      string
	JWTSecret string
}

// AdminAuth protects the admin API with HTTP Basic auth or a bearer token.
func AdminAuth(cfg AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	basic := cfg.User != "" || cfg.Pass != ""
	bearer := cfg.JWTSecret != ""

	return func(next http.Handler) http.Handler {
		// If no credentials are configured, skip auth
		if !basic && !bearer {
			logger.Warn("AUTH_USER, AUTH_PASS and JWT_SECRET not set, admin API is unauthenticated")
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearer {
				if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					if _, err := auth.ParseToken(tok, []byte(cfg.JWTSecret)); err == nil {
						next.ServeHTTP(w, r)
						return
					}
					writeError(w, http.StatusUnauthorized, "invalid token")
					return
				}
			}
			if basic {
				if u, p, ok := r.BasicAuth(); ok && u == cfg.User && p == cfg.Pass {
					next.ServeHTTP(w, r)
					return
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="invoicing"`)
			}
			writeError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}
