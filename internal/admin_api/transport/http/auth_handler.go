package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// AuthService is the slice of the user service the auth handler needs.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, expiresAt time.Time, err error)
}

// LoginRequestDTO is the login form payload.
type LoginRequestDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponseDTO carries the issued bearer token.
type LoginResponseDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler handles operator login.
type AuthHandler struct {
	auth     AuthService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAuthHandler(auth AuthService, logger *slog.Logger, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger, validate: validate}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	token, expiresAt, err := h.auth.Login(ctx, reqDTO.Username, reqDTO.Password)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, LoginResponseDTO{Token: token, ExpiresAt: expiresAt})
}
