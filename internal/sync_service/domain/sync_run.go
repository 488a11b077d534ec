package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncRun status values.
const (
	RunStatusUpToDate  = "up_to_date"
	RunStatusCommitted = "committed"
	RunStatusFailed    = "failed"
)

// SyncRun is the audit record of one completed reconciliation cycle.
type SyncRun struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	TeamsTotal int       `json:"teams_total"`
	LocalTotal int       `json:"local_total"`
	ToAdd      int       `json:"to_add"`
	ToUpdate   int       `json:"to_update"`
	Unchanged  int       `json:"unchanged"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// SyncRunRepository persists reconciliation audit records.
type SyncRunRepository interface {
	Create(ctx context.Context, run *SyncRun) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*SyncRun, error)
}
