package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	provdomain "github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

// ProfileService is the slice of the profile application the handler needs.
type ProfileService interface {
	CreateProfile(ctx context.Context, tenantID uuid.UUID, name, numberPrefix, routingPolicy, description string) (*provdomain.ConfigurationProfile, error)
	GetProfile(ctx context.Context, id, tenantID uuid.UUID) (*provdomain.ConfigurationProfile, error)
	ListProfiles(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*provdomain.ConfigurationProfile, error)
	UpdateProfile(ctx context.Context, id, tenantID uuid.UUID, name, numberPrefix, routingPolicy, description string) (*provdomain.ConfigurationProfile, error)
	DeleteProfile(ctx context.Context, id, tenantID uuid.UUID) error
	ApplyProfile(ctx context.Context, id, tenantID uuid.UUID) (*provdomain.ProfilePrefill, error)
}

// ProfileRequestDTO creates or updates a configuration profile.
type ProfileRequestDTO struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	NumberPrefix  string `json:"number_prefix"`
	RoutingPolicy string `json:"routing_policy"`
	Description   string `json:"description" validate:"max=500"`
}

// ProfileHandler handles configuration profile requests.
type ProfileHandler struct {
	profiles ProfileService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewProfileHandler(profiles ProfileService, logger *slog.Logger, validate *validator.Validate) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger, validate: validate}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tenants/{tenantID}/profiles", h.CreateProfile)
	r.Get("/tenants/{tenantID}/profiles", h.ListProfiles)
	r.Get("/tenants/{tenantID}/profiles/{profileID}", h.GetProfile)
	r.Put("/tenants/{tenantID}/profiles/{profileID}", h.UpdateProfile)
	r.Delete("/tenants/{tenantID}/profiles/{profileID}", h.DeleteProfile)
	r.Post("/tenants/{tenantID}/profiles/{profileID}/apply", h.ApplyProfile)
}

func profileIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "profileID"))
}

func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var reqDTO ProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	profile, err := h.profiles.CreateProfile(ctx, tenantID, reqDTO.Name, reqDTO.NumberPrefix, reqDTO.RoutingPolicy, reqDTO.Description)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusCreated, profile)
}

func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	offset, limit := paginationParams(r)
	profiles, err := h.profiles.ListProfiles(r.Context(), tenantID, offset, limit)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	profileID, err := profileIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}
	profile, err := h.profiles.GetProfile(r.Context(), profileID, tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	profileID, err := profileIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	var reqDTO ProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	profile, err := h.profiles.UpdateProfile(ctx, profileID, tenantID, reqDTO.Name, reqDTO.NumberPrefix, reqDTO.RoutingPolicy, reqDTO.Description)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	profileID, err := profileIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}
	if err := h.profiles.DeleteProfile(r.Context(), profileID, tenantID); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *ProfileHandler) ApplyProfile(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	profileID, err := profileIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}
	prefill, err := h.profiles.ApplyProfile(r.Context(), profileID, tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, prefill)
}
