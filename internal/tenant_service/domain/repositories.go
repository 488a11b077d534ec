package domain

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository manages tenant records.
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CredentialRepository manages tenant integration credentials. A tenant has
// at most one credential per kind.
type CredentialRepository interface {
	Upsert(ctx context.Context, cred *Credential) error
	GetByKind(ctx context.Context, tenantID uuid.UUID, kind CredentialKind) (*Credential, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Credential, error)
	Delete(ctx context.Context, tenantID uuid.UUID, kind CredentialKind) error
}
