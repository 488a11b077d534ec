package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

const uniqueViolationCode = "23505"

type PgPhoneNumberRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgPhoneNumberRepository(db *pgxpool.Pool, logger *slog.Logger) *PgPhoneNumberRepository {
	return &PgPhoneNumberRepository{db: db, logger: logger}
}

const phoneNumberColumns = `id, tenant_id, line_uri, display_name, user_principal_name, routing_policy, carrier, location, number_range, active, created_at, updated_at`

func scanPhoneNumber(row pgx.Row) (*domain.PhoneNumberRecord, error) {
	rec := &domain.PhoneNumberRecord{}
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.LineURI, &rec.DisplayName, &rec.UserPrincipalName,
		&rec.RoutingPolicy, &rec.Carrier, &rec.Location, &rec.NumberRange, &rec.Active,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PgPhoneNumberRepository) Create(ctx context.Context, rec *domain.PhoneNumberRecord) error {
	query := `
		INSERT INTO phone_numbers (` + phoneNumberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.TenantID, rec.LineURI, rec.DisplayName, rec.UserPrincipalName,
		rec.RoutingPolicy, rec.Carrier, rec.Location, rec.NumberRange, rec.Active,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateLineURI
		}
		r.logger.ErrorContext(ctx, "error creating phone number record", "error", err, "tenant_id", rec.TenantID, "line_uri", rec.LineURI)
		return err
	}
	return nil
}

func (r *PgPhoneNumberRepository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.PhoneNumberRecord, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers WHERE id = $1 AND tenant_id = $2`
	rec, err := scanPhoneNumber(r.db.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "error getting phone number by id", "error", err, "id", id, "tenant_id", tenantID)
		return nil, err
	}
	return rec, nil
}

func (r *PgPhoneNumberRepository) GetByLineURI(ctx context.Context, tenantID uuid.UUID, lineURI string) (*domain.PhoneNumberRecord, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers WHERE tenant_id = $1 AND line_uri = $2`
	rec, err := scanPhoneNumber(r.db.QueryRow(ctx, query, tenantID, lineURI))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "error getting phone number by line uri", "error", err, "tenant_id", tenantID, "line_uri", lineURI)
		return nil, err
	}
	return rec, nil
}

func (r *PgPhoneNumberRepository) List(ctx context.Context, tenantID uuid.UUID, filter domain.ListFilter, offset, limit int) ([]*domain.PhoneNumberRecord, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if filter.Carrier != "" {
		addArg("carrier =", filter.Carrier)
	}
	if filter.Location != "" {
		addArg("location =", filter.Location)
	}
	if filter.NumberRange != "" {
		addArg("number_range =", filter.NumberRange)
	}
	if filter.Assigned != nil {
		if *filter.Assigned {
			query += " AND user_principal_name <> ''"
		} else {
			query += " AND user_principal_name = ''"
		}
	}
	if filter.Active != nil {
		addArg("active =", *filter.Active)
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY line_uri ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "error listing phone numbers", "error", err, "tenant_id", tenantID)
		return nil, err
	}
	defer rows.Close()

	var records []*domain.PhoneNumberRecord
	for rows.Next() {
		rec, err := scanPhoneNumber(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "error scanning phone number row", "error", err, "tenant_id", tenantID)
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PgPhoneNumberRepository) Update(ctx context.Context, rec *domain.PhoneNumberRecord) error {
	query := `
		UPDATE phone_numbers
		SET display_name = $1, user_principal_name = $2, routing_policy = $3,
		    carrier = $4, location = $5, number_range = $6, active = $7, updated_at = $8
		WHERE id = $9 AND tenant_id = $10
	`
	rec.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, query,
		rec.DisplayName, rec.UserPrincipalName, rec.RoutingPolicy,
		rec.Carrier, rec.Location, rec.NumberRange, rec.Active, rec.UpdatedAt,
		rec.ID, rec.TenantID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "error updating phone number record", "error", err, "id", rec.ID, "tenant_id", rec.TenantID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgPhoneNumberRepository) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM phone_numbers WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "error deleting phone number record", "error", err, "id", id, "tenant_id", tenantID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgPhoneNumberRepository) UpsertByLineURI(ctx context.Context, rec *domain.PhoneNumberRecord) (bool, error) {
	query := `
		INSERT INTO phone_numbers (` + phoneNumberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (tenant_id, line_uri) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    user_principal_name = EXCLUDED.user_principal_name,
		    routing_policy = EXCLUDED.routing_policy,
		    updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`
	now := time.Now().UTC()
	rec.UpdatedAt = now
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		rec.ID, rec.TenantID, rec.LineURI, rec.DisplayName, rec.UserPrincipalName,
		rec.RoutingPolicy, rec.Carrier, rec.Location, rec.NumberRange, rec.Active,
		rec.CreatedAt, rec.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		r.logger.ErrorContext(ctx, "error upserting phone number record", "error", err, "tenant_id", rec.TenantID, "line_uri", rec.LineURI)
		return false, err
	}
	return inserted, nil
}
