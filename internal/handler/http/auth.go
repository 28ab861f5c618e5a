package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/MumuCarrot/bestpractices-bc/pkg/errors"
	"github.com/MumuCarrot/bestpractices-bc/pkg/middleware"
	"github.com/MumuCarrot/bestpractices-bc/pkg/validator"

	"github.com/MumuCarrot/bestpractices-bc/internal/service"
)

// AuthHandler handles HTTP requests for the auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
	cookies CookieConfig
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger, cookies: cookies}
}

// --- Request DTOs ---

// CredentialsRequest is the JSON request body for registration and login.
type CredentialsRequest struct {
	Login    string `json:"login" validate:"required,login"`
	Password string `json:"password" validate:"required,password"`
}

// --- Handlers ---

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "VALIDATION_ERROR", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	// Tokens travel only as httpOnly cookies; the body carries the user.
	setTokenCookies(w, tokens, h.cookies)
	writeJSON(w, http.StatusCreated, response{Success: true, Data: user})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "VALIDATION_ERROR", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	setTokenCookies(w, tokens, h.cookies)
	writeJSON(w, http.StatusOK, response{Success: true, Data: user})
}

// RefreshToken handles GET /auth/refresh-token. The refresh token arrives in
// its httpOnly cookie, never in the body or a header.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeAppError(w, r, apperrors.RefreshInvalid(), h.logger)
		return
	}

	user, tokens, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	setTokenCookies(w, tokens, h.cookies)
	writeJSON(w, http.StatusOK, response{Success: true, Data: user})
}

// Me handles GET /auth/me (behind the auth middleware).
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: user})
}
