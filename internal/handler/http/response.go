package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/MumuCarrot/bestpractices-bc/pkg/errors"
	"github.com/MumuCarrot/bestpractices-bc/pkg/logger"
	"github.com/MumuCarrot/bestpractices-bc/pkg/validator"

	"github.com/MumuCarrot/bestpractices-bc/internal/domain"
)

// Cookie names the browser flows rely on.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

type response struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.WithContext(r.Context(), log).Error("request failed",
				slog.String("code", appErr.Code),
				slog.Any("error", appErr.Err),
			)
		}
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	logger.WithContext(r.Context(), log).Error("request failed", slog.Any("error", err))
	writeJSON(w, apperrors.HTTPStatus(err), response{
		Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, response{
		Error: &errorResponse{Code: "VALIDATION_ERROR", Message: err.Error()},
	})
}

// CookieConfig controls how token cookies are written.
type CookieConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Secure marks the cookies HTTPS-only. On in production, off for local
	// plain-HTTP development.
	Secure bool
}

// setTokenCookies writes both tokens as httpOnly cookies so browser scripts
// can never read them. Lifetimes mirror the embedded token expiries.
func setTokenCookies(w http.ResponseWriter, pair *domain.TokenPair, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(cfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
