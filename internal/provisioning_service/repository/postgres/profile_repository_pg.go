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

	"github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

const uniqueViolationCode = "23505"

type PgProfileRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgProfileRepository(db *pgxpool.Pool, logger *slog.Logger) *PgProfileRepository {
	return &PgProfileRepository{db: db, logger: logger}
}

func (r *PgProfileRepository) Create(ctx context.Context, profile *domain.ConfigurationProfile) error {
	query := `
		INSERT INTO config_profiles (id, tenant_id, name, number_prefix, routing_policy, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		profile.ID, profile.TenantID, profile.Name, profile.NumberPrefix,
		profile.RoutingPolicy, profile.Description, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateName
		}
		r.logger.ErrorContext(ctx, "error creating profile", "error", err, "tenant_id", profile.TenantID, "name", profile.Name)
		return err
	}
	return nil
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.ConfigurationProfile, error) {
	query := `
		SELECT id, tenant_id, name, number_prefix, routing_policy, description, created_at, updated_at
		FROM config_profiles
		WHERE id = $1 AND tenant_id = $2
	`
	profile := &domain.ConfigurationProfile{}
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&profile.ID, &profile.TenantID, &profile.Name, &profile.NumberPrefix,
		&profile.RoutingPolicy, &profile.Description, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "error getting profile", "error", err, "profile_id", id, "tenant_id", tenantID)
		return nil, err
	}
	return profile, nil
}

func (r *PgProfileRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.ConfigurationProfile, error) {
	query := `
		SELECT id, tenant_id, name, number_prefix, routing_policy, description, created_at, updated_at
		FROM config_profiles
		WHERE tenant_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "error listing profiles", "error", err, "tenant_id", tenantID)
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.ConfigurationProfile
	for rows.Next() {
		profile := &domain.ConfigurationProfile{}
		if err := rows.Scan(
			&profile.ID, &profile.TenantID, &profile.Name, &profile.NumberPrefix,
			&profile.RoutingPolicy, &profile.Description, &profile.CreatedAt, &profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *PgProfileRepository) Update(ctx context.Context, profile *domain.ConfigurationProfile) error {
	query := `
		UPDATE config_profiles
		SET name = $1, number_prefix = $2, routing_policy = $3, description = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
	`
	profile.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, query,
		profile.Name, profile.NumberPrefix, profile.RoutingPolicy, profile.Description,
		profile.UpdatedAt, profile.ID, profile.TenantID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateName
		}
		r.logger.ErrorContext(ctx, "error updating profile", "error", err, "profile_id", profile.ID, "tenant_id", profile.TenantID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgProfileRepository) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM config_profiles WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "error deleting profile", "error", err, "profile_id", id, "tenant_id", tenantID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
