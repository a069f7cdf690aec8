package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/service"
)

// AuthHandler serves signup and token exchange.
type AuthHandler struct {
	auth   *service.AuthService
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.signup)
	r.Post("/auth/token", h.token)
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

type tokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// signup handles POST /auth/signup.
func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	out, err := h.auth.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signupRequest{Username: out.Username, Email: out.Email})
}

// token handles POST /auth/token.
func (h *AuthHandler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	out, err := h.auth.Token(r.Context(), service.TokenInput{
		Username:         req.Username,
		ConfirmationCode: req.ConfirmationCode,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: out.Token})
}
