package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voiceops/teamsadmin/internal/user_service/domain"
)

type PgAdminUserRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgAdminUserRepository(db *pgxpool.Pool, logger *slog.Logger) *PgAdminUserRepository {
	return &PgAdminUserRepository{db: db, logger: logger}
}

const adminUserColumns = `id, username, password_hash, display_name, active, created_at, updated_at`

func scanAdminUser(row pgx.Row) (*domain.AdminUser, error) {
	user := &domain.AdminUser{}
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.DisplayName,
		&user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PgAdminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	query := `
		INSERT INTO admin_users (` + adminUserColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.DisplayName,
		user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "error creating admin user", "error", err, "username", user.Username)
		return err
	}
	return nil
}

func (r *PgAdminUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AdminUser, error) {
	user, err := scanAdminUser(r.db.QueryRow(ctx, `SELECT `+adminUserColumns+` FROM admin_users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *PgAdminUserRepository) GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	user, err := scanAdminUser(r.db.QueryRow(ctx, `SELECT `+adminUserColumns+` FROM admin_users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
