package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

type PgAssignmentBatchRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgAssignmentBatchRepository(db *pgxpool.Pool, logger *slog.Logger) *PgAssignmentBatchRepository {
	return &PgAssignmentBatchRepository{db: db, logger: logger}
}

func (r *PgAssignmentBatchRepository) Create(ctx context.Context, batch *domain.AssignmentBatch) error {
	results, err := json.Marshal(batch.Results)
	if err != nil {
		return fmt.Errorf("marshal batch results: %w", err)
	}
	query := `
		INSERT INTO assignment_batches (id, tenant_id, submitted_at, total, succeeded, failed, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		batch.ID, batch.TenantID, batch.SubmittedAt, batch.Total, batch.Succeeded, batch.Failed, results,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "error creating assignment batch", "error", err, "batch_id", batch.ID, "tenant_id", batch.TenantID)
		return err
	}
	return nil
}

func (r *PgAssignmentBatchRepository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.AssignmentBatch, error) {
	query := `
		SELECT id, tenant_id, submitted_at, total, succeeded, failed, results
		FROM assignment_batches
		WHERE id = $1 AND tenant_id = $2
	`
	batch := &domain.AssignmentBatch{}
	var results []byte
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&batch.ID, &batch.TenantID, &batch.SubmittedAt, &batch.Total, &batch.Succeeded, &batch.Failed, &results,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "error getting assignment batch", "error", err, "batch_id", id, "tenant_id", tenantID)
		return nil, err
	}
	if err := json.Unmarshal(results, &batch.Results); err != nil {
		return nil, fmt.Errorf("unmarshal batch results: %w", err)
	}
	return batch, nil
}

func (r *PgAssignmentBatchRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.AssignmentBatch, error) {
	query := `
		SELECT id, tenant_id, submitted_at, total, succeeded, failed, results
		FROM assignment_batches
		WHERE tenant_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "error listing assignment batches", "error", err, "tenant_id", tenantID)
		return nil, err
	}
	defer rows.Close()

	var batches []*domain.AssignmentBatch
	for rows.Next() {
		batch := &domain.AssignmentBatch{}
		var results []byte
		if err := rows.Scan(
			&batch.ID, &batch.TenantID, &batch.SubmittedAt, &batch.Total, &batch.Succeeded, &batch.Failed, &results,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(results, &batch.Results); err != nil {
			return nil, fmt.Errorf("unmarshal batch results: %w", err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}
