package account

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

type NextStep string

const (
	NextStepCreateEmployerProfile  NextStep = "create_employer_profile"
	NextStepCreateJobSeekerProfile NextStep = "create_job_seeker_profile"
	NextStepDashboard              NextStep = "dashboard"
)

type OverviewUseCase struct {
	userRepo   user.Repository
	employers  employer.Repository
	jobSeekers jobseeker.Repository
}

func NewOverviewUseCase(users user.Repository, employers employer.Repository, jobSeekers jobseeker.Repository) *OverviewUseCase {
	return &OverviewUseCase{userRepo: users, employers: employers, jobSeekers: jobSeekers}
}

type OverviewInput struct {
	UserID uuid.UUID
}

type OverviewOutput struct {
	User       *user.User
	HasProfile bool
	NextStep   NextStep
}

// Execute tells the client where to send the user after login: to the profile
// form for their account type until a profile exists, then to the dashboard.
func (uc *OverviewUseCase) Execute(ctx context.Context, input OverviewInput) (*OverviewOutput, error) {
	u, err := uc.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperror.NewNotFound("user", input.UserID.String())
		}
		return nil, apperror.NewInternal("failed to load user", err)
	}

	var (
		exists bool
		next   NextStep
	)
	switch u.Type {
	case user.TypeEmployer:
		exists, err = uc.employers.ExistsForUser(ctx, u.ID)
		next = NextStepCreateEmployerProfile
	case user.TypeJobSeeker:
		exists, err = uc.jobSeekers.ExistsForUser(ctx, u.ID)
		next = NextStepCreateJobSeekerProfile
	default:
		return nil, apperror.NewInternal("user has unknown type", user.ErrInvalidType)
	}
	if err != nil {
		return nil, apperror.NewInternal("failed to check profile", err)
	}
	if exists {
		next = NextStepDashboard
	}
	return &OverviewOutput{User: u, HasProfile: exists, NextStep: next}, nil
}
