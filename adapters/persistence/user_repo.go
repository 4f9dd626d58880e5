package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khoahotran/talent-forge/internal/domain/user"
)

const userColumns = `id, email, password_hash, user_type, mfa_secret, mfa_enabled, mfa_confirmed_at, created_at, updated_at`

type postgresUserRepo struct {
	db DBTX
}

func NewPostgresUserRepo(db DBTX) user.Repository {
	return &postgresUserRepo{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var userType string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&userType,
		&u.MFASecret,
		&u.MFAEnabled,
		&u.MFAConfirmedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("error when query user: %w", err)
	}
	u.Type = user.Type(userType)
	return u, nil
}

func (r *postgresUserRepo) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, user_type, mfa_secret, mfa_enabled, mfa_confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, string(u.Type), u.MFASecret, u.MFAEnabled, u.MFAConfirmedAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// AssignMFASecret only writes when no secret exists. When the update loses a
// race the follow-up read, in a fresh snapshot, returns the winner's secret.
func (r *postgresUserRepo) AssignMFASecret(ctx context.Context, id uuid.UUID, secret string) (string, error) {
	update := `
		UPDATE users SET mfa_secret = $2, updated_at = NOW()
		WHERE id = $1 AND mfa_secret IS NULL
		RETURNING mfa_secret
	`
	var stored string
	err := r.db.QueryRow(ctx, update, id, secret).Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("assign mfa secret: %w", err)
	}

	u, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !u.HasSecret() {
		return "", fmt.Errorf("assign mfa secret: secret still missing for user %s", id)
	}
	return *u.MFASecret, nil
}

// SetMFAEnabled stamps mfa_confirmed_at the first time MFA is turned on.
func (r *postgresUserRepo) SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	query := `
		UPDATE users SET
			mfa_enabled = $2::boolean,
			mfa_confirmed_at = CASE WHEN $2::boolean THEN COALESCE(mfa_confirmed_at, NOW()) ELSE mfa_confirmed_at END,
			updated_at = NOW()
		WHERE id = $1 AND ($2::boolean = FALSE OR mfa_secret IS NOT NULL)
	`
	tag, err := r.db.Exec(ctx, query, id, enabled)
	if err != nil {
		return fmt.Errorf("set mfa enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return user.ErrSecretMissing
	}
	return nil
}
