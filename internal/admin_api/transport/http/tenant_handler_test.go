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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

type stubTenantService struct {
	tenant     *tenantdomain.Tenant
	credential *tenantdomain.Credential
	err        error

	savedSecret string
}

func (s *stubTenantService) CreateTenant(ctx context.Context, name, defaultDomain string) (*tenantdomain.Tenant, error) {
	return s.tenant, s.err
}

func (s *stubTenantService) GetTenant(ctx context.Context, id uuid.UUID) (*tenantdomain.Tenant, error) {
	return s.tenant, s.err
}

func (s *stubTenantService) ListTenants(ctx context.Context, offset, limit int) ([]*tenantdomain.Tenant, error) {
	return []*tenantdomain.Tenant{s.tenant}, s.err
}

func (s *stubTenantService) UpdateTenant(ctx context.Context, id uuid.UUID, name, defaultDomain string, active bool) (*tenantdomain.Tenant, error) {
	return s.tenant, s.err
}

func (s *stubTenantService) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s *stubTenantService) SaveCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind, public map[string]string, secret string) (*tenantdomain.Credential, error) {
	s.savedSecret = secret
	return s.credential, s.err
}

func (s *stubTenantService) GetCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) (*tenantdomain.Credential, error) {
	return s.credential, s.err
}

func (s *stubTenantService) ListCredentials(ctx context.Context, tenantID uuid.UUID) ([]*tenantdomain.Credential, error) {
	return []*tenantdomain.Credential{s.credential}, s.err
}

func (s *stubTenantService) DeleteCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) error {
	return s.err
}

func (s *stubTenantService) TestCredential(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) error {
	return s.err
}

func newTenantRouter(service *stubTenantService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewTenantHandler(service, logger, validator.New())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestSaveCredential_ResponseOmitsSecret(t *testing.T) {
	tenantID := uuid.New()
	service := &stubTenantService{
		credential: &tenantdomain.Credential{
			ID:           uuid.New(),
			TenantID:     tenantID,
			Kind:         tenantdomain.CredentialConnectWise,
			Public:       map[string]string{"company_id": "contoso"},
			SecretSet:    true,
			SealedSecret: []byte("should never appear"),
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		},
	}
	router := newTenantRouter(service)

	body, _ := json.Marshal(SaveCredentialRequestDTO{
		Public: map[string]string{"company_id": "contoso"},
		Secret: "private-key",
	})
	req := httptest.NewRequest(http.MethodPut, "/tenants/"+tenantID.String()+"/credentials/connectwise", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "private-key", service.savedSecret)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["secret_set"])
	_, hasSecret := payload["secret"]
	assert.False(t, hasSecret)
	assert.NotContains(t, rec.Body.String(), "should never appear")
	assert.NotContains(t, rec.Body.String(), "sealed")
}

func TestTenantHandler_InvalidTenantID(t *testing.T) {
	router := newTenantRouter(&stubTenantService{})
	req := httptest.NewRequest(http.MethodGet, "/tenants/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantHandler_DomainErrorMapping(t *testing.T) {
	tenantID := uuid.New().String()
	testCases := []struct {
		name     string
		err      error
		method   string
		path     string
		wantCode int
	}{
		{"not found", tenantdomain.ErrNotFound, http.MethodGet, "/tenants/" + tenantID, http.StatusNotFound},
		{"duplicate name", tenantdomain.ErrDuplicateTenantName, http.MethodGet, "/tenants/" + tenantID, http.StatusConflict},
		{"secret not set", tenantdomain.ErrSecretNotSet, http.MethodPost, "/tenants/" + tenantID + "/credentials/connectwise/test", http.StatusPreconditionFailed},
		{"unknown kind", tenantdomain.ErrUnknownCredentialKind, http.MethodPost, "/tenants/" + tenantID + "/credentials/bogus/test", http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTenantRouter(&stubTenantService{err: tc.err})
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestCreateTenant_Validation(t *testing.T) {
	router := newTenantRouter(&stubTenantService{})

	body, _ := json.Marshal(CreateTenantRequestDTO{Name: "x", DefaultDomain: "not a domain"})
	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTenant_Success(t *testing.T) {
	tenant := &tenantdomain.Tenant{ID: uuid.New(), Name: "Contoso", DefaultDomain: "contoso.com", Active: true}
	router := newTenantRouter(&stubTenantService{tenant: tenant})

	body, _ := json.Marshal(CreateTenantRequestDTO{Name: "Contoso", DefaultDomain: "contoso.com"})
	req := httptest.NewRequest(http.MethodPost, "/tenants", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got tenantdomain.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, tenant.ID, got.ID)
}
