package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	syncapp "github.com/voiceops/teamsadmin/internal/sync_service/app"
	syncdomain "github.com/voiceops/teamsadmin/internal/sync_service/domain"
)

// SyncService is the slice of the sync orchestrator the handler needs.
type SyncService interface {
	StartSync(ctx context.Context, tenantID uuid.UUID) (*syncapp.SyncReview, error)
	Review(tenantID uuid.UUID) (*syncapp.SyncReview, error)
	UpdateSelection(tenantID uuid.UUID, lineURIs []string) error
	Commit(ctx context.Context, tenantID uuid.UUID) (*syncapp.CommitResult, error)
	Dismiss(tenantID uuid.UUID) error
	CurrentState(tenantID uuid.UUID) syncapp.State
	ListRuns(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*syncdomain.SyncRun, error)
}

// UpdateSelectionRequestDTO replaces the reviewed selection.
type UpdateSelectionRequestDTO struct {
	LineURIs []string `json:"line_uris" validate:"required"`
}

// SyncHandler drives the directory reconciliation cycle over HTTP.
type SyncHandler struct {
	sync     SyncService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewSyncHandler(sync SyncService, logger *slog.Logger, validate *validator.Validate) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger, validate: validate}
}

func (h *SyncHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tenants/{tenantID}/sync", h.StartSync)
	r.Get("/tenants/{tenantID}/sync/review", h.Review)
	r.Put("/tenants/{tenantID}/sync/selection", h.UpdateSelection)
	r.Post("/tenants/{tenantID}/sync/commit", h.Commit)
	r.Delete("/tenants/{tenantID}/sync", h.Dismiss)
	r.Get("/tenants/{tenantID}/sync/state", h.State)
	r.Get("/tenants/{tenantID}/sync/runs", h.ListRuns)
}

func (h *SyncHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	review, err := h.sync.StartSync(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusBadGateway)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

func (h *SyncHandler) Review(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	review, err := h.sync.Review(tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

func (h *SyncHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var reqDTO UpdateSelectionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.sync.UpdateSelection(tenantID, reqDTO.LineURIs); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	review, err := h.sync.Review(tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

func (h *SyncHandler) Commit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	result, err := h.sync.Commit(r.Context(), tenantID)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *SyncHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	if err := h.sync.Dismiss(tenantID); err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *SyncHandler) State(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"state": string(h.sync.CurrentState(tenantID))})
}

func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}
	offset, limit := paginationParams(r)
	runs, err := h.sync.ListRuns(r.Context(), tenantID, offset, limit)
	if err != nil {
		respondWithDomainError(w, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}
