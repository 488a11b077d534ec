package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

// Application provides phone-number inventory operations for a tenant.
type Application struct {
	numberRepo domain.PhoneNumberRepository
	logger     *slog.Logger
}

func NewApplication(numberRepo domain.PhoneNumberRepository, logger *slog.Logger) *Application {
	return &Application{numberRepo: numberRepo, logger: logger}
}

// CreateNumber validates and stores a new inventory record.
func (a *Application) CreateNumber(ctx context.Context, tenantID uuid.UUID, lineURI, displayName, upn, routingPolicy, carrier, location, numberRange string, active bool) (*domain.PhoneNumberRecord, error) {
	if err := domain.ValidateLineURI(lineURI); err != nil {
		return nil, err
	}
	rec := domain.NewPhoneNumberRecord(uuid.New(), tenantID, lineURI, displayName, upn, routingPolicy, carrier, location, numberRange, active)
	if err := a.numberRepo.Create(ctx, rec); err != nil {
		a.logger.ErrorContext(ctx, "failed to create inventory record", "error", err, "tenant_id", tenantID, "line_uri", lineURI)
		return nil, err
	}
	a.logger.InfoContext(ctx, "inventory record created", "tenant_id", tenantID, "line_uri", lineURI)
	return rec, nil
}

func (a *Application) GetNumber(ctx context.Context, id, tenantID uuid.UUID) (*domain.PhoneNumberRecord, error) {
	return a.numberRepo.GetByID(ctx, id, tenantID)
}

func (a *Application) ListNumbers(ctx context.Context, tenantID uuid.UUID, filter domain.ListFilter, offset, limit int) ([]*domain.PhoneNumberRecord, error) {
	return a.numberRepo.List(ctx, tenantID, filter, offset, limit)
}

// UpdateNumber updates the mutable fields of an existing record. The line
// URI itself is immutable; delete and recreate to renumber.
func (a *Application) UpdateNumber(ctx context.Context, id, tenantID uuid.UUID, displayName, upn, routingPolicy, carrier, location, numberRange string, active bool) (*domain.PhoneNumberRecord, error) {
	rec, err := a.numberRepo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	rec.DisplayName = displayName
	rec.UserPrincipalName = upn
	rec.RoutingPolicy = routingPolicy
	rec.Carrier = carrier
	rec.Location = location
	rec.NumberRange = numberRange
	rec.Active = active
	if err := a.numberRepo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *Application) DeleteNumber(ctx context.Context, id, tenantID uuid.UUID) error {
	return a.numberRepo.Delete(ctx, id, tenantID)
}

// Snapshot pages through the tenant's full inventory. The sync
// orchestrator diffs this against the remote directory.
func (a *Application) Snapshot(ctx context.Context, tenantID uuid.UUID) ([]*domain.PhoneNumberRecord, error) {
	const snapshotPageSize = 500
	var all []*domain.PhoneNumberRecord
	for offset := 0; ; offset += snapshotPageSize {
		page, err := a.numberRepo.List(ctx, tenantID, domain.ListFilter{}, offset, snapshotPageSize)
		if err != nil {
			return nil, fmt.Errorf("snapshot inventory: %w", err)
		}
		all = append(all, page...)
		if len(page) < snapshotPageSize {
			break
		}
	}
	return all, nil
}

// ApplyDirectoryChanges commits operator-approved add/update records from a
// directory sync into local storage. Records keep their remote assignment
// fields; inventory-only metadata on existing rows is left untouched by the
// upsert. Returns how many records were added vs updated.
func (a *Application) ApplyDirectoryChanges(ctx context.Context, tenantID uuid.UUID, records []*domain.PhoneNumberRecord) (added int, updated int, err error) {
	for _, rec := range records {
		if rec.TenantID != tenantID {
			return added, updated, fmt.Errorf("record %s does not belong to tenant %s", rec.LineURI, tenantID)
		}
		created, err := a.numberRepo.UpsertByLineURI(ctx, rec)
		if err != nil {
			return added, updated, fmt.Errorf("apply change for %s: %w", rec.LineURI, err)
		}
		if created {
			added++
		} else {
			updated++
		}
	}
	a.logger.InfoContext(ctx, "directory changes applied", "tenant_id", tenantID, "added", added, "updated", updated)
	return added, updated, nil
}
