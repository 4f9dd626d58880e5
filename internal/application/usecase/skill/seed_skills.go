package skill

import (
	"context"
	"strings"

	"github.com/khoahotran/talent-forge/internal/domain/skill"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

// DefaultCatalog is loaded by the seed script when no names are given.
var DefaultCatalog = []string{
	"Communication", "Customer Service", "Data Analysis", "Docker", "Excel",
	"Go", "Java", "JavaScript", "Kubernetes", "Project Management",
	"Python", "React", "Sales", "SQL", "Teamwork",
}

type SeedSkillsUseCase struct {
	repo skill.Repository
}

func NewSeedSkillsUseCase(repo skill.Repository) *SeedSkillsUseCase {
	return &SeedSkillsUseCase{repo: repo}
}

type SeedSkillsOutput struct {
	Skills []skill.Skill
}

// Execute makes sure every name exists in the catalog. Names are trimmed and
// blank or repeated entries are skipped; running it twice changes nothing.
func (uc *SeedSkillsUseCase) Execute(ctx context.Context, names []string) (*SeedSkillsOutput, error) {
	seen := make(map[string]struct{}, len(names))
	out := &SeedSkillsOutput{}
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		s, err := uc.repo.GetOrCreate(ctx, name)
		if err != nil {
			return nil, apperror.NewInternal("failed to seed skill "+name, err)
		}
		out.Skills = append(out.Skills, *s)
	}
	return out, nil
}
