package domain

import (
	"context"

	"github.com/google/uuid"
)

// PhoneNumberRepository manages the tenant-scoped local inventory.
type PhoneNumberRepository interface {
	Create(ctx context.Context, rec *PhoneNumberRecord) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*PhoneNumberRecord, error)
	GetByLineURI(ctx context.Context, tenantID uuid.UUID, lineURI string) (*PhoneNumberRecord, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter, offset, limit int) ([]*PhoneNumberRecord, error)
	Update(ctx context.Context, rec *PhoneNumberRecord) error
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
	// UpsertByLineURI inserts the record or, when the tenant already has
	// the line URI, overwrites the tracked assignment fields. Reports
	// whether a new row was created.
	UpsertByLineURI(ctx context.Context, rec *PhoneNumberRecord) (created bool, err error)
}
