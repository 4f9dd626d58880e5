package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
)

var jobSeekerColumns = []string{
	"id", "user_id", "first_name", "last_name", "location", "role", "phone_number", "industry",
	"about", "picture_url", "picture_thumbnail_url", "resume_url", "created_at", "updated_at",
}

type postgresJobSeekerRepo struct {
	db DBTX
}

func NewPostgresJobSeekerRepo(db DBTX) jobseeker.Repository {
	return &postgresJobSeekerRepo{db: db}
}

func (r *postgresJobSeekerRepo) Create(ctx context.Context, p *jobseeker.Profile) error {
	query, args, err := psql.Insert("job_seeker_profiles").
		Columns(jobSeekerColumns...).
		Values(p.ID, p.UserID, p.FirstName, p.LastName, p.Location, p.Role, p.PhoneNumber, p.Industry,
			p.About, p.PictureURL, p.PictureThumbnailURL, p.ResumeURL, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert job seeker profile: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return jobseeker.ErrProfileExists
		}
		return fmt.Errorf("insert job seeker profile: %w", err)
	}
	return nil
}

func (r *postgresJobSeekerRepo) AddEducations(ctx context.Context, profileID uuid.UUID, items []jobseeker.Education) error {
	if len(items) == 0 {
		return nil
	}
	b := psql.Insert("educations").
		Columns("id", "job_seeker_id", "institution", "degree", "field_of_study", "start_date", "end_date", "description")
	for _, e := range items {
		b = b.Values(e.ID, profileID, e.Institution, e.Degree, e.FieldOfStudy, e.StartDate, e.EndDate, e.Description)
	}
	return r.execInsert(ctx, b, "educations")
}

func (r *postgresJobSeekerRepo) AddExperiences(ctx context.Context, profileID uuid.UUID, items []jobseeker.Experience) error {
	if len(items) == 0 {
		return nil
	}
	b := psql.Insert("job_experiences").
		Columns("id", "job_seeker_id", "company_name", "position", "start_date", "end_date", "location", "responsibilities")
	for _, e := range items {
		b = b.Values(e.ID, profileID, e.CompanyName, e.Position, e.StartDate, e.EndDate, e.Location, e.Responsibilities)
	}
	return r.execInsert(ctx, b, "job_experiences")
}

func (r *postgresJobSeekerRepo) AddCertifications(ctx context.Context, profileID uuid.UUID, items []jobseeker.Certification) error {
	if len(items) == 0 {
		return nil
	}
	b := psql.Insert("certifications").
		Columns("id", "job_seeker_id", "name", "issuer", "issue_date", "expiration_date", "credential_url")
	for _, c := range items {
		b = b.Values(c.ID, profileID, c.Name, c.Issuer, c.IssueDate, c.ExpirationDate, c.CredentialURL)
	}
	return r.execInsert(ctx, b, "certifications")
}

func (r *postgresJobSeekerRepo) execInsert(ctx context.Context, b sq.InsertBuilder, table string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s: %w", table, err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// LinkSkill treats an existing (profile, skill) pair as success.
func (r *postgresJobSeekerRepo) LinkSkill(ctx context.Context, profileID, skillID uuid.UUID, p jobseeker.Proficiency) (bool, error) {
	query := `
		INSERT INTO job_seeker_skills (job_seeker_id, skill_id, proficiency)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_seeker_id, skill_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, profileID, skillID, string(p))
	if err != nil {
		return false, fmt.Errorf("link skill: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresJobSeekerRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*jobseeker.Profile, error) {
	query, args, err := psql.Select(jobSeekerColumns...).
		From("job_seeker_profiles").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select job seeker profile: %w", err)
	}

	p := &jobseeker.Profile{}
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Location, &p.Role, &p.PhoneNumber, &p.Industry,
		&p.About, &p.PictureURL, &p.PictureThumbnailURL, &p.ResumeURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobseeker.ErrProfileNotFound
		}
		return nil, fmt.Errorf("query job seeker profile: %w", err)
	}

	if p.Educations, err = r.educations(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Experiences, err = r.experiences(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Certifications, err = r.certifications(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Skills, err = r.skills(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresJobSeekerRepo) educations(ctx context.Context, profileID uuid.UUID) ([]jobseeker.Education, error) {
	b := psql.Select("id", "institution", "degree", "field_of_study", "start_date", "end_date", "description").
		From("educations").
		Where(sq.Eq{"job_seeker_id": profileID}).
		OrderBy("start_date DESC", "id")
	return collect(ctx, r.db, b, func(rows pgx.Rows) (jobseeker.Education, error) {
		var e jobseeker.Education
		err := rows.Scan(&e.ID, &e.Institution, &e.Degree, &e.FieldOfStudy, &e.StartDate, &e.EndDate, &e.Description)
		return e, err
	})
}

func (r *postgresJobSeekerRepo) experiences(ctx context.Context, profileID uuid.UUID) ([]jobseeker.Experience, error) {
	b := psql.Select("id", "company_name", "position", "start_date", "end_date", "location", "responsibilities").
		From("job_experiences").
		Where(sq.Eq{"job_seeker_id": profileID}).
		OrderBy("start_date DESC", "id")
	return collect(ctx, r.db, b, func(rows pgx.Rows) (jobseeker.Experience, error) {
		var e jobseeker.Experience
		err := rows.Scan(&e.ID, &e.CompanyName, &e.Position, &e.StartDate, &e.EndDate, &e.Location, &e.Responsibilities)
		return e, err
	})
}

func (r *postgresJobSeekerRepo) certifications(ctx context.Context, profileID uuid.UUID) ([]jobseeker.Certification, error) {
	b := psql.Select("id", "name", "issuer", "issue_date", "expiration_date", "credential_url").
		From("certifications").
		Where(sq.Eq{"job_seeker_id": profileID}).
		OrderBy("issue_date DESC", "id")
	return collect(ctx, r.db, b, func(rows pgx.Rows) (jobseeker.Certification, error) {
		var c jobseeker.Certification
		err := rows.Scan(&c.ID, &c.Name, &c.Issuer, &c.IssueDate, &c.ExpirationDate, &c.CredentialURL)
		return c, err
	})
}

func (r *postgresJobSeekerRepo) skills(ctx context.Context, profileID uuid.UUID) ([]jobseeker.SkillLink, error) {
	b := psql.Select("s.id", "s.name", "js.proficiency").
		From("job_seeker_skills js").
		Join("skills s ON s.id = js.skill_id").
		Where(sq.Eq{"js.job_seeker_id": profileID}).
		OrderBy("s.name")
	return collect(ctx, r.db, b, func(rows pgx.Rows) (jobseeker.SkillLink, error) {
		var l jobseeker.SkillLink
		var prof string
		err := rows.Scan(&l.SkillID, &l.Name, &prof)
		l.Proficiency = jobseeker.Proficiency(prof)
		return l, err
	})
}

// collect runs a select and scans every row; the result is never nil so it
// encodes as [] rather than null.
func collect[T any](ctx context.Context, db DBTX, b sq.SelectBuilder, scan func(pgx.Rows) (T, error)) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (r *postgresJobSeekerRepo) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	return existsForUser(ctx, r.db, "job_seeker_profiles", userID)
}

func (r *postgresJobSeekerRepo) SetAssetURL(ctx context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	var column string
	switch kind {
	case asset.KindPicture:
		column = "picture_url"
	case asset.KindResume:
		column = "resume_url"
	default:
		return asset.ErrInvalidKind
	}
	return setColumn(ctx, r.db, "job_seeker_profiles", column, userID, url, jobseeker.ErrProfileNotFound)
}

func (r *postgresJobSeekerRepo) SetThumbnailURL(ctx context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	if kind != asset.KindPicture {
		return asset.ErrInvalidKind
	}
	return setColumn(ctx, r.db, "job_seeker_profiles", "picture_thumbnail_url", userID, url, jobseeker.ErrProfileNotFound)
}
