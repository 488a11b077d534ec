package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voiceops/teamsadmin/internal/platform/secrets"
	"github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

// CredentialTester verifies a credential against its integration's API.
// Each integration client implements this for its own kind.
type CredentialTester interface {
	TestCredential(ctx context.Context, public map[string]string, secret string) error
}

// Application provides tenant and credential management.
type Application struct {
	tenantRepo domain.TenantRepository
	credRepo   domain.CredentialRepository
	box        *secrets.Box
	testers    map[domain.CredentialKind]CredentialTester
	logger     *slog.Logger
}

func NewApplication(
	tenantRepo domain.TenantRepository,
	credRepo domain.CredentialRepository,
	box *secrets.Box,
	testers map[domain.CredentialKind]CredentialTester,
	logger *slog.Logger,
) *Application {
	return &Application{
		tenantRepo: tenantRepo,
		credRepo:   credRepo,
		box:        box,
		testers:    testers,
		logger:     logger,
	}
}

// --- Tenants ---

func (a *Application) CreateTenant(ctx context.Context, name, defaultDomain string) (*domain.Tenant, error) {
	tenant := domain.NewTenant(uuid.New(), name, defaultDomain)
	if err := a.tenantRepo.Create(ctx, tenant); err != nil {
		a.logger.ErrorContext(ctx, "failed to create tenant", "error", err, "name", name)
		return nil, err
	}
	a.logger.InfoContext(ctx, "tenant created", "tenant_id", tenant.ID, "name", name)
	return tenant, nil
}

func (a *Application) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return a.tenantRepo.GetByID(ctx, id)
}

func (a *Application) ListTenants(ctx context.Context, offset, limit int) ([]*domain.Tenant, error) {
	return a.tenantRepo.List(ctx, offset, limit)
}

func (a *Application) UpdateTenant(ctx context.Context, id uuid.UUID, name, defaultDomain string, active bool) (*domain.Tenant, error) {
	tenant, err := a.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Name = name
	tenant.DefaultDomain = defaultDomain
	tenant.Active = active
	if err := a.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (a *Application) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	return a.tenantRepo.Delete(ctx, id)
}

// --- Credentials ---

// SaveCredential creates or replaces the tenant's credential for a kind.
// The secret is sealed before it is stored. An empty secret on an existing
// credential keeps the previously saved secret, so clients can update the
// public fields without re-entering it.
func (a *Application) SaveCredential(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind, public map[string]string, secret string) (*domain.Credential, error) {
	if !domain.ValidCredentialKind(kind) {
		return nil, domain.ErrUnknownCredentialKind
	}
	if _, err := a.tenantRepo.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}

	cred := &domain.Credential{
		ID:       uuid.New(),
		TenantID: tenantID,
		Kind:     kind,
		Public:   public,
	}
	if secret != "" {
		sealed, err := a.box.Seal([]byte(secret))
		if err != nil {
			return nil, fmt.Errorf("seal credential secret: %w", err)
		}
		cred.SealedSecret = sealed
		cred.SecretSet = true
	} else {
		existing, err := a.credRepo.GetByKind(ctx, tenantID, kind)
		if err == nil && existing.SecretSet {
			cred.SealedSecret = existing.SealedSecret
			cred.SecretSet = true
		}
	}

	if err := a.credRepo.Upsert(ctx, cred); err != nil {
		a.logger.ErrorContext(ctx, "failed to save credential", "error", err, "tenant_id", tenantID, "kind", kind)
		return nil, err
	}
	a.logger.InfoContext(ctx, "credential saved", "tenant_id", tenantID, "kind", kind, "secret_set", cred.SecretSet)
	return redacted(cred), nil
}

// GetCredential returns the credential's public fields only; the secret is
// never included.
func (a *Application) GetCredential(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind) (*domain.Credential, error) {
	cred, err := a.credRepo.GetByKind(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}
	return redacted(cred), nil
}

// ListCredentials returns all of the tenant's credentials, secrets redacted.
func (a *Application) ListCredentials(ctx context.Context, tenantID uuid.UUID) ([]*domain.Credential, error) {
	creds, err := a.credRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Credential, 0, len(creds))
	for _, cred := range creds {
		out = append(out, redacted(cred))
	}
	return out, nil
}

func (a *Application) DeleteCredential(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind) error {
	return a.credRepo.Delete(ctx, tenantID, kind)
}

// TestCredential checks the stored credential against the integration's
// API. The secret is unsealed only for the duration of the call and never
// leaves the process.
func (a *Application) TestCredential(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind) error {
	tester, ok := a.testers[kind]
	if !ok {
		return domain.ErrUnknownCredentialKind
	}
	cred, err := a.credRepo.GetByKind(ctx, tenantID, kind)
	if err != nil {
		return err
	}
	secret, err := a.unseal(cred)
	if err != nil {
		return err
	}
	if err := tester.TestCredential(ctx, cred.Public, secret); err != nil {
		a.logger.WarnContext(ctx, "credential test failed", "tenant_id", tenantID, "kind", kind, "error", err)
		return err
	}
	a.logger.InfoContext(ctx, "credential test succeeded", "tenant_id", tenantID, "kind", kind)
	return nil
}

// SecretFor unseals a tenant's secret for internal integration calls.
// Transport handlers must never expose its return value.
func (a *Application) SecretFor(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind) (map[string]string, string, error) {
	cred, err := a.credRepo.GetByKind(ctx, tenantID, kind)
	if err != nil {
		return nil, "", err
	}
	secret, err := a.unseal(cred)
	if err != nil {
		return nil, "", err
	}
	return cred.Public, secret, nil
}

func (a *Application) unseal(cred *domain.Credential) (string, error) {
	if !cred.SecretSet {
		return "", domain.ErrSecretNotSet
	}
	plain, err := a.box.Open(cred.SealedSecret)
	if err != nil {
		return "", fmt.Errorf("unseal credential secret: %w", err)
	}
	return string(plain), nil
}

// redacted strips sealed secret material from a credential before it
// crosses the application boundary.
func redacted(cred *domain.Credential) *domain.Credential {
	out := *cred
	out.SealedSecret = nil
	return &out
}
