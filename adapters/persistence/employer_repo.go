package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
)

var employerColumns = []string{
	"id", "user_id", "name", "email", "industry", "company_website", "location",
	"number_employees", "about", "logo_url", "logo_thumbnail_url", "created_at", "updated_at",
}

type postgresEmployerRepo struct {
	db DBTX
}

func NewPostgresEmployerRepo(db DBTX) employer.Repository {
	return &postgresEmployerRepo{db: db}
}

func (r *postgresEmployerRepo) Create(ctx context.Context, p *employer.Profile) error {
	query, args, err := psql.Insert("employer_profiles").
		Columns(employerColumns...).
		Values(p.ID, p.UserID, p.Name, p.Email, p.Industry, p.CompanyWebsite, p.Location,
			p.NumberEmployees, p.About, p.LogoURL, p.LogoThumbnailURL, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert employer profile: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return employer.ErrProfileExists
		}
		return fmt.Errorf("insert employer profile: %w", err)
	}
	return nil
}

func (r *postgresEmployerRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*employer.Profile, error) {
	query, args, err := psql.Select(employerColumns...).
		From("employer_profiles").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select employer profile: %w", err)
	}

	p := &employer.Profile{}
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Industry, &p.CompanyWebsite, &p.Location,
		&p.NumberEmployees, &p.About, &p.LogoURL, &p.LogoThumbnailURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employer.ErrProfileNotFound
		}
		return nil, fmt.Errorf("query employer profile: %w", err)
	}
	return p, nil
}

func (r *postgresEmployerRepo) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	return existsForUser(ctx, r.db, "employer_profiles", userID)
}

func (r *postgresEmployerRepo) SetAssetURL(ctx context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	if kind != asset.KindLogo {
		return asset.ErrInvalidKind
	}
	return setColumn(ctx, r.db, "employer_profiles", "logo_url", userID, url, employer.ErrProfileNotFound)
}

func (r *postgresEmployerRepo) SetThumbnailURL(ctx context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	if kind != asset.KindLogo {
		return asset.ErrInvalidKind
	}
	return setColumn(ctx, r.db, "employer_profiles", "logo_thumbnail_url", userID, url, employer.ErrProfileNotFound)
}

func existsForUser(ctx context.Context, db DBTX, table string, userID uuid.UUID) (bool, error) {
	query, args, err := psql.Select("1").From(table).Where(sq.Eq{"user_id": userID}).Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}
	var exists bool
	if err := db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("query %s: %w", table, err)
	}
	return exists, nil
}

// setColumn updates one URL column of the user's profile row; notFound is
// returned when the user has no profile.
func setColumn(ctx context.Context, db DBTX, table, column string, userID uuid.UUID, value string, notFound error) error {
	query, args, err := psql.Update(table).
		Set(column, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", table, err)
	}
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", table, column, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
