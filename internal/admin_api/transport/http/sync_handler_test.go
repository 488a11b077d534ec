package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/voiceops/teamsadmin/internal/sync_service/app"
	syncdomain "github.com/voiceops/teamsadmin/internal/sync_service/domain"
)

type stubSyncService struct {
	review *syncapp.SyncReview
	result *syncapp.CommitResult
	state  syncapp.State
	err    error

	gotSelection []string
}

func (s *stubSyncService) StartSync(ctx context.Context, tenantID uuid.UUID) (*syncapp.SyncReview, error) {
	return s.review, s.err
}

func (s *stubSyncService) Review(tenantID uuid.UUID) (*syncapp.SyncReview, error) {
	return s.review, s.err
}

func (s *stubSyncService) UpdateSelection(tenantID uuid.UUID, lineURIs []string) error {
	s.gotSelection = lineURIs
	return s.err
}

func (s *stubSyncService) Commit(ctx context.Context, tenantID uuid.UUID) (*syncapp.CommitResult, error) {
	return s.result, s.err
}

func (s *stubSyncService) Dismiss(tenantID uuid.UUID) error {
	return s.err
}

func (s *stubSyncService) CurrentState(tenantID uuid.UUID) syncapp.State {
	return s.state
}

func (s *stubSyncService) ListRuns(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*syncdomain.SyncRun, error) {
	return nil, s.err
}

func newSyncRouter(service *stubSyncService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewSyncHandler(service, logger, validator.New())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestStartSync_ReturnsReview(t *testing.T) {
	tenantID := uuid.New()
	service := &stubSyncService{review: &syncapp.SyncReview{
		State:    syncapp.StateCommitPending,
		Selected: []string{"tel:+14255550100"},
	}}
	router := newSyncRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/tenants/"+tenantID.String()+"/sync", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var review syncapp.SyncReview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &review))
	assert.Equal(t, syncapp.StateCommitPending, review.State)
	assert.Equal(t, []string{"tel:+14255550100"}, review.Selected)
}

func TestSyncHandler_ErrorMapping(t *testing.T) {
	tenantID := uuid.New().String()
	testCases := []struct {
		name     string
		err      error
		method   string
		path     string
		wantCode int
	}{
		{"sync in progress", syncdomain.ErrSyncInProgress, http.MethodPost, "/tenants/" + tenantID + "/sync", http.StatusConflict},
		{"remote timeout", syncdomain.ErrRemoteTimeout, http.MethodPost, "/tenants/" + tenantID + "/sync", http.StatusGatewayTimeout},
		{"no pending review", syncdomain.ErrNoPendingSync, http.MethodGet, "/tenants/" + tenantID + "/sync/review", http.StatusBadRequest},
		{"commit without review", syncdomain.ErrNoPendingSync, http.MethodPost, "/tenants/" + tenantID + "/sync/commit", http.StatusBadRequest},
		{"dismiss while committing", syncdomain.ErrSyncInProgress, http.MethodDelete, "/tenants/" + tenantID + "/sync", http.StatusConflict},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newSyncRouter(&stubSyncService{err: tc.err})
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestUpdateSelection_ForwardsLineURIs(t *testing.T) {
	tenantID := uuid.New()
	service := &stubSyncService{review: &syncapp.SyncReview{State: syncapp.StateCommitPending}}
	router := newSyncRouter(service)

	body, _ := json.Marshal(UpdateSelectionRequestDTO{LineURIs: []string{"tel:+14255550100", "tel:+14255550101"}})
	req := httptest.NewRequest(http.MethodPut, "/tenants/"+tenantID.String()+"/sync/selection", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tel:+14255550100", "tel:+14255550101"}, service.gotSelection)
}

func TestUpdateSelection_UnknownURI(t *testing.T) {
	tenantID := uuid.New()
	router := newSyncRouter(&stubSyncService{err: syncdomain.ErrUnknownSelection})

	body, _ := json.Marshal(UpdateSelectionRequestDTO{LineURIs: []string{"tel:+19995550000"}})
	req := httptest.NewRequest(http.MethodPut, "/tenants/"+tenantID.String()+"/sync/selection", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncState(t *testing.T) {
	tenantID := uuid.New()
	router := newSyncRouter(&stubSyncService{state: syncapp.StateSyncing})

	req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/sync/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "syncing", payload["state"])
}
