package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

// TenantService is the slice of the tenant application the handler needs.
type TenantService interface {
	CreateTenant(ctx context.Context, name, defaultDomain string) (*tenantdomain.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*tenantdomain.Tenant, error)
	ListTenants(ctx context.Context, offset, limit int) ([]*tenantdomain.Tenant, error)
	UpdateTenant(ctx context.Context, id uuid.UUID, name, defaultDomain string, active bool) (*tenantdomain.Tenant, error)
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	SaveCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind, public map[string]string, secret string) (*tenantdomain.Credential, error)
	GetCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) (*tenantdomain.Credential, error)
	ListCredentials(ctx context.Context, tenantID uuid.UUID) ([]*tenantdomain.Credential, error)
	DeleteCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) error
	TestCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) error
}

// TenantHandler handles tenant and credential management requests.
type TenantHandler struct {
	tenants  TenantService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewTenantHandler(tenants TenantService, logger *slog.Logger, validate *validator.Validate) *TenantHandler {
	return &TenantHandler{tenants: tenants, logger: logger, validate: validate}
}

func (h *TenantHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tenants", h.CreateTenant)
	r.Get("/tenants", h.ListTenants)
	r.Get("/tenants/{tenantID}", h.GetTenant)
	r.Put("/tenants/{tenantID}", h.UpdateTenant)
	r.Delete("/tenants/{tenantID}", h.DeleteTenant)

	r.Get("/tenants/{tenantID}/credentials", h.ListCredentials)
	r.Put("/tenants/{tenantID}/credentials/{kind}", h.SaveCredential)
	r.Get("/tenants/{tenantID}/credentials/{kind}", h.GetCredential)
	r.Delete("/tenants/{tenantID}/credentials/{kind}", h.DeleteCredential)
	r.Post("/tenants/{tenantID}/credentials/{kind}/test", h.TestCredential)
}

func tenantIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "tenantID"))
}

func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO CreateTenantRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	tenant, err := h.tenants.CreateTenant(ctx, reqDTO.Name, reqDTO.DefaultDomain)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusCreated, tenant)
}

func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	offset, limit := paginationParams(r)
	tenants, err := h.tenants.ListTenants(r.Context(), offset, limit)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, tenants)
}

func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	tenant, err := h.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var reqDTO UpdateTenantRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	tenant, err := h.tenants.UpdateTenant(ctx, tenantID, reqDTO.Name, reqDTO.DefaultDomain, reqDTO.Active)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	if err := h.tenants.DeleteTenant(r.Context(), tenantID); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *TenantHandler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	creds, err := h.tenants.ListCredentials(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	out := make([]CredentialResponseDTO, 0, len(creds))
	for _, cred := range creds {
		out = append(out, toCredentialResponse(cred))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *TenantHandler) SaveCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	kind := tenantdomain.CredentialKind(chi.URLParam(r, "kind"))

	var reqDTO SaveCredentialRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	cred, err := h.tenants.SaveCredential(ctx, tenantID, kind, reqDTO.Public, reqDTO.Secret)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, toCredentialResponse(cred))
}

func (h *TenantHandler) GetCredential(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	kind := tenantdomain.CredentialKind(chi.URLParam(r, "kind"))
	cred, err := h.tenants.GetCredential(r.Context(), tenantID, kind)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, toCredentialResponse(cred))
}

func (h *TenantHandler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	kind := tenantdomain.CredentialKind(chi.URLParam(r, "kind"))
	if err := h.tenants.DeleteCredential(r.Context(), tenantID, kind); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *TenantHandler) TestCredential(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	kind := tenantdomain.CredentialKind(chi.URLParam(r, "kind"))
	if err := h.tenants.TestCredential(r.Context(), tenantID, kind); err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
