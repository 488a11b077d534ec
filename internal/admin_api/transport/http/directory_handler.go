package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/voiceops/teamsadmin/internal/integrations/teams"
)

// PolicyService exposes routing policy reads and cache invalidation.
type PolicyService interface {
	FetchRoutingPolicies(ctx context.Context, tenantID uuid.UUID) ([]teams.RoutingPolicy, error)
	InvalidatePolicies(ctx context.Context, tenantID uuid.UUID) error
}

// SessionService exposes the bridge's PowerShell session lifecycle.
type SessionService interface {
	Connect(ctx context.Context, tenantID uuid.UUID) (*teams.SessionStatus, error)
	SendMfaCode(ctx context.Context, tenantID uuid.UUID, code string) (*teams.SessionStatus, error)
	Disconnect(ctx context.Context, tenantID uuid.UUID) error
	Events(ctx context.Context, tenantID uuid.UUID) ([]teams.SessionEvent, error)
}

// MfaCodeRequestDTO forwards an MFA code to an awaiting session.
type MfaCodeRequestDTO struct {
	Code string `json:"code" validate:"required,min=4,max=16"`
}

// DirectoryHandler handles routing policy and PowerShell session requests.
type DirectoryHandler struct {
	policies PolicyService
	sessions SessionService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewDirectoryHandler(policies PolicyService, sessions SessionService, logger *slog.Logger, validate *validator.Validate) *DirectoryHandler {
	return &DirectoryHandler{policies: policies, sessions: sessions, logger: logger, validate: validate}
}

func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tenants/{tenantID}/routing-policies", h.ListRoutingPolicies)
	r.Delete("/tenants/{tenantID}/routing-policies/cache", h.InvalidatePolicyCache)

	r.Post("/tenants/{tenantID}/session/connect", h.Connect)
	r.Post("/tenants/{tenantID}/session/mfa", h.SendMfaCode)
	r.Delete("/tenants/{tenantID}/session", h.Disconnect)
	r.Get("/tenants/{tenantID}/session/events", h.Events)
}

func (h *DirectoryHandler) ListRoutingPolicies(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	policies, err := h.policies.FetchRoutingPolicies(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusOK, policies)
}

func (h *DirectoryHandler) InvalidatePolicyCache(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	if err := h.policies.InvalidatePolicies(r.Context(), tenantID); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *DirectoryHandler) Connect(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	status, err := h.sessions.Connect(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

func (h *DirectoryHandler) SendMfaCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var reqDTO MfaCodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	status, err := h.sessions.SendMfaCode(ctx, tenantID, reqDTO.Code)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

func (h *DirectoryHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	if err := h.sessions.Disconnect(r.Context(), tenantID); err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *DirectoryHandler) Events(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	events, err := h.sessions.Events(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	if events == nil {
		events = []teams.SessionEvent{}
	}
	respondWithJSON(w, http.StatusOK, events)
}
