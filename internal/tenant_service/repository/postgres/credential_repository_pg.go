package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

type PgCredentialRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgCredentialRepository(db *pgxpool.Pool, logger *slog.Logger) *PgCredentialRepository {
	return &PgCredentialRepository{db: db, logger: logger}
}

func (r *PgCredentialRepository) Upsert(ctx context.Context, cred *domain.Credential) error {
	public, err := json.Marshal(cred.Public)
	if err != nil {
		return fmt.Errorf("marshal credential public fields: %w", err)
	}
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	query := `
		INSERT INTO tenant_credentials (id, tenant_id, kind, public, sealed_secret, secret_set, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, kind) DO UPDATE
		SET public = EXCLUDED.public,
		    sealed_secret = EXCLUDED.sealed_secret,
		    secret_set = EXCLUDED.secret_set,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query,
		cred.ID, cred.TenantID, string(cred.Kind), public, cred.SealedSecret, cred.SecretSet,
		cred.CreatedAt, cred.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "error upserting credential", "error", err, "tenant_id", cred.TenantID, "kind", cred.Kind)
		return err
	}
	return nil
}

func (r *PgCredentialRepository) GetByKind(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind) (*domain.Credential, error) {
	query := `
		SELECT id, tenant_id, kind, public, sealed_secret, secret_set, created_at, updated_at
		FROM tenant_credentials
		WHERE tenant_id = $1 AND kind = $2
	`
	cred, err := scanCredential(r.db.QueryRow(ctx, query, tenantID, string(kind)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "error getting credential", "error", err, "tenant_id", tenantID, "kind", kind)
		return nil, err
	}
	return cred, nil
}

func (r *PgCredentialRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Credential, error) {
	query := `
		SELECT id, tenant_id, kind, public, sealed_secret, secret_set, created_at, updated_at
		FROM tenant_credentials
		WHERE tenant_id = $1
		ORDER BY kind ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "error listing credentials", "error", err, "tenant_id", tenantID)
		return nil, err
	}
	defer rows.Close()

	var creds []*domain.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return creds, nil
}

func (r *PgCredentialRepository) Delete(ctx context.Context, tenantID uuid.UUID, kind domain.CredentialKind) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenant_credentials WHERE tenant_id = $1 AND kind = $2`, tenantID, string(kind))
	if err != nil {
		r.logger.ErrorContext(ctx, "error deleting credential", "error", err, "tenant_id", tenantID, "kind", kind)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	cred := &domain.Credential{}
	var kind string
	var public []byte
	err := row.Scan(
		&cred.ID, &cred.TenantID, &kind, &public, &cred.SealedSecret, &cred.SecretSet,
		&cred.CreatedAt, &cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cred.Kind = domain.CredentialKind(kind)
	if err := json.Unmarshal(public, &cred.Public); err != nil {
		return nil, fmt.Errorf("unmarshal credential public fields: %w", err)
	}
	return cred, nil
}
