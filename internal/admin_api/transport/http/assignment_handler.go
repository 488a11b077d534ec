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

// AssignmentService is the slice of the bulk executor the handler needs.
type AssignmentService interface {
	Execute(ctx context.Context, tenantID uuid.UUID, requests []provdomain.AssignmentRequest) (*provdomain.AssignmentBatch, error)
	GeneratePreview(prefix string, start, count, padWidth int) ([]string, error)
	ListBatches(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*provdomain.AssignmentBatch, error)
	GetBatch(ctx context.Context, id, tenantID uuid.UUID) (*provdomain.AssignmentBatch, error)
}

// AssignmentItemDTO is one row of a bulk assignment form.
type AssignmentItemDTO struct {
	UserPrincipalName string `json:"user_principal_name" validate:"required"`
	LineURI           string `json:"line_uri" validate:"required"`
	RoutingPolicy     string `json:"routing_policy"`
}

// BulkAssignmentRequestDTO submits a bulk assignment batch.
type BulkAssignmentRequestDTO struct {
	Assignments []AssignmentItemDTO `json:"assignments" validate:"required,min=1,dive"`
}

// GeneratePreviewRequestDTO requests a sequential number preview.
type GeneratePreviewRequestDTO struct {
	Prefix   string `json:"prefix" validate:"required"`
	Start    int    `json:"start" validate:"min=0"`
	Count    int    `json:"count" validate:"required,min=1,max=1000"`
	PadWidth int    `json:"pad_width" validate:"min=0,max=14"`
}

// AssignmentHandler handles bulk phone-number assignment requests.
type AssignmentHandler struct {
	assignments AssignmentService
	logger      *slog.Logger
	validate    *validator.Validate
}

func NewAssignmentHandler(assignments AssignmentService, logger *slog.Logger, validate *validator.Validate) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, logger: logger, validate: validate}
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tenants/{tenantID}/assignments", h.Execute)
	r.Post("/tenants/{tenantID}/assignments/preview", h.GeneratePreview)
	r.Get("/tenants/{tenantID}/assignments/batches", h.ListBatches)
	r.Get("/tenants/{tenantID}/assignments/batches/{batchID}", h.GetBatch)
}

func (h *AssignmentHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var reqDTO BulkAssignmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	requests := make([]provdomain.AssignmentRequest, 0, len(reqDTO.Assignments))
	for _, item := range reqDTO.Assignments {
		requests = append(requests, provdomain.AssignmentRequest{
			UserPrincipalName: item.UserPrincipalName,
			LineURI:           item.LineURI,
			RoutingPolicy:     item.RoutingPolicy,
		})
	}

	batch, err := h.assignments.Execute(ctx, tenantID, requests)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusOK, batch)
}

func (h *AssignmentHandler) GeneratePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO GeneratePreviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	uris, err := h.assignments.GeneratePreview(reqDTO.Prefix, reqDTO.Start, reqDTO.Count, reqDTO.PadWidth)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadRequest)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"line_uris": uris})
}

func (h *AssignmentHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	offset, limit := paginationParams(r)
	batches, err := h.assignments.ListBatches(r.Context(), tenantID, offset, limit)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, batches)
}

func (h *AssignmentHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid batch ID")
		return
	}
	batch, err := h.assignments.GetBatch(r.Context(), batchID, tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, batch)
}
