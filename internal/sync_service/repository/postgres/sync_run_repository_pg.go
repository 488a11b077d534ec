package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voiceops/teamsadmin/internal/sync_service/domain"
)

type PgSyncRunRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgSyncRunRepository(db *pgxpool.Pool, logger *slog.Logger) *PgSyncRunRepository {
	return &PgSyncRunRepository{db: db, logger: logger}
}

func (r *PgSyncRunRepository) Create(ctx context.Context, run *domain.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, tenant_id, started_at, finished_at, teams_total, local_total,
		                       to_add, to_update, unchanged, added, updated, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		run.ID, run.TenantID, run.StartedAt, run.FinishedAt, run.TeamsTotal, run.LocalTotal,
		run.ToAdd, run.ToUpdate, run.Unchanged, run.Added, run.Updated, run.Status, run.Error,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "error creating sync run", "error", err, "tenant_id", run.TenantID)
		return err
	}
	return nil
}

func (r *PgSyncRunRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.SyncRun, error) {
	query := `
		SELECT id, tenant_id, started_at, finished_at, teams_total, local_total,
		       to_add, to_update, unchanged, added, updated, status, error
		FROM sync_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "error listing sync runs", "error", err, "tenant_id", tenantID)
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.SyncRun
	for rows.Next() {
		run := &domain.SyncRun{}
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.StartedAt, &run.FinishedAt, &run.TeamsTotal, &run.LocalTotal,
			&run.ToAdd, &run.ToUpdate, &run.Unchanged, &run.Added, &run.Updated, &run.Status, &run.Error,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
