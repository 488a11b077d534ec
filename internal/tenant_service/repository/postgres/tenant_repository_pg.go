package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

const uniqueViolationCode = "23505"

type PgTenantRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgTenantRepository(db *pgxpool.Pool, logger *slog.Logger) *PgTenantRepository {
	return &PgTenantRepository{db: db, logger: logger}
}

func (r *PgTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, default_domain, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.DefaultDomain, tenant.Active, tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateTenantName
		}
		r.logger.ErrorContext(ctx, "error creating tenant", "error", err, "name", tenant.Name)
		return err
	}
	return nil
}

func (r *PgTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT id, name, default_domain, active, created_at, updated_at FROM tenants WHERE id = $1`
	tenant := &domain.Tenant{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.DefaultDomain, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "error getting tenant", "error", err, "tenant_id", id)
		return nil, err
	}
	return tenant, nil
}

func (r *PgTenantRepository) List(ctx context.Context, offset, limit int) ([]*domain.Tenant, error) {
	query := `
		SELECT id, name, default_domain, active, created_at, updated_at
		FROM tenants
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "error listing tenants", "error", err)
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant := &domain.Tenant{}
		if err := rows.Scan(
			&tenant.ID, &tenant.Name, &tenant.DefaultDomain, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *PgTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, default_domain = $2, active = $3, updated_at = $4
		WHERE id = $5
	`
	tenant.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, query,
		tenant.Name, tenant.DefaultDomain, tenant.Active, tenant.UpdatedAt, tenant.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateTenantName
		}
		r.logger.ErrorContext(ctx, "error updating tenant", "error", err, "tenant_id", tenant.ID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "error deleting tenant", "error", err, "tenant_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
