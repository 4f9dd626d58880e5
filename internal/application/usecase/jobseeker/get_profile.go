package jobseeker

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

type GetProfileUseCase struct {
	repo jobseeker.Repository
}

func NewGetProfileUseCase(repo jobseeker.Repository) *GetProfileUseCase {
	return &GetProfileUseCase{repo: repo}
}

type GetProfileInput struct {
	UserID uuid.UUID
}

type GetProfileOutput struct {
	Profile *jobseeker.Profile
}

func (uc *GetProfileUseCase) Execute(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	p, err := uc.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, jobseeker.ErrProfileNotFound) {
			return nil, apperror.NewNotFound("job seeker profile", input.UserID.String())
		}
		return nil, apperror.NewInternal("failed to load job seeker profile", err)
	}
	return &GetProfileOutput{Profile: p}, nil
}
