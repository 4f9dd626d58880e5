package skill

import (
	"context"

	"github.com/khoahotran/talent-forge/internal/domain/skill"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

type ListSkillsUseCase struct {
	repo skill.Repository
}

func NewListSkillsUseCase(repo skill.Repository) *ListSkillsUseCase {
	return &ListSkillsUseCase{repo: repo}
}

type ListSkillsOutput struct {
	Skills []skill.Skill
}

func (uc *ListSkillsUseCase) Execute(ctx context.Context) (*ListSkillsOutput, error) {
	skills, err := uc.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal("failed to list skills", err)
	}
	return &ListSkillsOutput{Skills: skills}, nil
}
