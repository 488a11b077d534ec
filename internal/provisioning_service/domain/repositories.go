package domain

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository manages tenant-scoped configuration profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *ConfigurationProfile) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*ConfigurationProfile, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*ConfigurationProfile, error)
	Update(ctx context.Context, profile *ConfigurationProfile) error
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
}

// AssignmentBatchRepository persists bulk assignment audit records.
type AssignmentBatchRepository interface {
	Create(ctx context.Context, batch *AssignmentBatch) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*AssignmentBatch, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*AssignmentBatch, error)
}
