package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khoahotran/talent-forge/internal/domain/skill"
)

type postgresSkillRepo struct {
	db DBTX
}

func NewPostgresSkillRepo(db DBTX) skill.Repository {
	return &postgresSkillRepo{db: db}
}

// GetOrCreate inserts the name unless it exists and then looks it up. DO NOTHING
// keeps a concurrent insert of the same name from aborting the caller's
// transaction.
func (r *postgresSkillRepo) GetOrCreate(ctx context.Context, name string) (*skill.Skill, error) {
	insert := `
		INSERT INTO skills (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name
	`
	s := &skill.Skill{}
	err := r.db.QueryRow(ctx, insert, uuid.New(), name).Scan(&s.ID, &s.Name)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert skill: %w", err)
	}

	if err := r.db.QueryRow(ctx, `SELECT id, name FROM skills WHERE name = $1`, name).Scan(&s.ID, &s.Name); err != nil {
		return nil, fmt.Errorf("lookup skill %q: %w", name, err)
	}
	return s, nil
}

func (r *postgresSkillRepo) List(ctx context.Context) ([]skill.Skill, error) {
	b := psql.Select("id", "name").From("skills").OrderBy("name")
	return collect(ctx, r.db, b, func(rows pgx.Rows) (skill.Skill, error) {
		var s skill.Skill
		err := rows.Scan(&s.ID, &s.Name)
		return s, err
	})
}
