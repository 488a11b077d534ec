package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

// InventoryService is the slice of the inventory application the handler needs.
type InventoryService interface {
	CreateNumber(ctx context.Context, tenantID uuid.UUID, lineURI, displayName, upn, routingPolicy, carrier, location, numberRange string, active bool) (*invdomain.PhoneNumberRecord, error)
	GetNumber(ctx context.Context, id, tenantID uuid.UUID) (*invdomain.PhoneNumberRecord, error)
	ListNumbers(ctx context.Context, tenantID uuid.UUID, filter invdomain.ListFilter, offset, limit int) ([]*invdomain.PhoneNumberRecord, error)
	UpdateNumber(ctx context.Context, id, tenantID uuid.UUID, displayName, upn, routingPolicy, carrier, location, numberRange string, active bool) (*invdomain.PhoneNumberRecord, error)
	DeleteNumber(ctx context.Context, id, tenantID uuid.UUID) error
	ExportXLSX(ctx context.Context, tenantID uuid.UUID, filter invdomain.ListFilter) ([]byte, error)
}

// CreateNumberRequestDTO creates an inventory record.
type CreateNumberRequestDTO struct {
	LineURI           string `json:"line_uri" validate:"required"`
	DisplayName       string `json:"display_name"`
	UserPrincipalName string `json:"user_principal_name"`
	RoutingPolicy     string `json:"routing_policy"`
	Carrier           string `json:"carrier"`
	Location          string `json:"location"`
	NumberRange       string `json:"number_range"`
	Active            bool   `json:"active"`
}

// UpdateNumberRequestDTO updates the mutable fields of a record. The line
// URI is immutable and absent here.
type UpdateNumberRequestDTO struct {
	DisplayName       string `json:"display_name"`
	UserPrincipalName string `json:"user_principal_name"`
	RoutingPolicy     string `json:"routing_policy"`
	Carrier           string `json:"carrier"`
	Location          string `json:"location"`
	NumberRange       string `json:"number_range"`
	Active            bool   `json:"active"`
}

// InventoryHandler handles phone-number inventory requests.
type InventoryHandler struct {
	inventory InventoryService
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewInventoryHandler(inventory InventoryService, logger *slog.Logger, validate *validator.Validate) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: logger, validate: validate}
}

func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tenants/{tenantID}/numbers", h.CreateNumber)
	r.Get("/tenants/{tenantID}/numbers", h.ListNumbers)
	r.Get("/tenants/{tenantID}/numbers/export", h.ExportNumbers)
	r.Get("/tenants/{tenantID}/numbers/{numberID}", h.GetNumber)
	r.Put("/tenants/{tenantID}/numbers/{numberID}", h.UpdateNumber)
	r.Delete("/tenants/{tenantID}/numbers/{numberID}", h.DeleteNumber)
}

// listFilterFromQuery builds the repository filter from query params.
// assigned/active accept true/false; anything else leaves the axis unset.
func listFilterFromQuery(r *http.Request) invdomain.ListFilter {
	q := r.URL.Query()
	filter := invdomain.ListFilter{
		Carrier:     q.Get("carrier"),
		Location:    q.Get("location"),
		NumberRange: q.Get("number_range"),
	}
	if raw := q.Get("assigned"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.Assigned = &v
		}
	}
	if raw := q.Get("active"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &v
		}
	}
	return filter
}

func (h *InventoryHandler) CreateNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var reqDTO CreateNumberRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	rec, err := h.inventory.CreateNumber(ctx, tenantID,
		reqDTO.LineURI, reqDTO.DisplayName, reqDTO.UserPrincipalName, reqDTO.RoutingPolicy,
		reqDTO.Carrier, reqDTO.Location, reqDTO.NumberRange, reqDTO.Active)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusCreated, rec)
}

func (h *InventoryHandler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	offset, limit := paginationParams(r)
	records, err := h.inventory.ListNumbers(r.Context(), tenantID, listFilterFromQuery(r), offset, limit)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

func (h *InventoryHandler) GetNumber(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	numberID, err := uuid.Parse(chi.URLParam(r, "numberID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid number ID")
		return
	}
	rec, err := h.inventory.GetNumber(r.Context(), numberID, tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (h *InventoryHandler) UpdateNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	numberID, err := uuid.Parse(chi.URLParam(r, "numberID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid number ID")
		return
	}

	var reqDTO UpdateNumberRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	rec, err := h.inventory.UpdateNumber(ctx, numberID, tenantID,
		reqDTO.DisplayName, reqDTO.UserPrincipalName, reqDTO.RoutingPolicy,
		reqDTO.Carrier, reqDTO.Location, reqDTO.NumberRange, reqDTO.Active)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (h *InventoryHandler) DeleteNumber(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	numberID, err := uuid.Parse(chi.URLParam(r, "numberID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid number ID")
		return
	}
	if err := h.inventory.DeleteNumber(r.Context(), numberID, tenantID); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *InventoryHandler) ExportNumbers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	data, err := h.inventory.ExportXLSX(r.Context(), tenantID, listFilterFromQuery(r))
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	filename := "phone-numbers-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write export response", "tenant_id", tenantID, "error", err)
	}
}
