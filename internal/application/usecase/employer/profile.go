package employer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/internal/domain/validate"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

var tracer = otel.Tracer("employer_usecase")

type ProfileUseCase struct {
	profileRepo employer.Repository
	publisher   service.EventPublisher
	logger      logger.Logger
}

func NewProfileUseCase(repo employer.Repository, publisher service.EventPublisher, log logger.Logger) *ProfileUseCase {
	return &ProfileUseCase{profileRepo: repo, publisher: publisher, logger: log}
}

type CreateProfileInput struct {
	UserID          uuid.UUID `json:"-"`
	UserType        user.Type `json:"-"`
	Name            string    `json:"name" validate:"required,max=255"`
	Email           string    `json:"email" validate:"required,email,max=255"`
	Industry        string    `json:"industry" validate:"required,max=100"`
	CompanyWebsite  string    `json:"company_website" validate:"omitempty,http_url"`
	Location        string    `json:"location" validate:"required,max=255"`
	NumberEmployees int       `json:"number_employees" validate:"gte=0"`
	About           string    `json:"about"`
}

type CreateProfileOutput struct {
	ProfileID uuid.UUID
}

func (uc *ProfileUseCase) ExecuteCreateProfile(ctx context.Context, input CreateProfileInput) (*CreateProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "CreateEmployerProfile")
	defer span.End()

	if input.UserType != user.TypeEmployer {
		return nil, apperror.NewPermissionDenied("only employers can create an employer profile")
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Industry = strings.TrimSpace(input.Industry)
	input.CompanyWebsite = strings.TrimSpace(input.CompanyWebsite)
	input.Location = strings.TrimSpace(input.Location)
	errs, err := validate.Struct(input)
	if err != nil {
		return nil, apperror.NewInternal("failed to validate profile", err)
	}
	if !errs.Empty() {
		return nil, apperror.NewValidation(errs)
	}

	now := time.Now().UTC()
	p := &employer.Profile{
		ID:              uuid.New(),
		UserID:          input.UserID,
		Name:            input.Name,
		Email:           input.Email,
		Industry:        input.Industry,
		CompanyWebsite:  input.CompanyWebsite,
		Location:        input.Location,
		NumberEmployees: input.NumberEmployees,
		About:           input.About,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.profileRepo.Create(ctx, p); err != nil {
		if errors.Is(err, employer.ErrProfileExists) {
			return nil, apperror.NewConflict("employer profile", "user_id", input.UserID.String())
		}
		uc.logger.Error("Failed to save employer profile", err, zap.String("user_id", input.UserID.String()))
		err = apperror.NewInternal("failed to save profile", err)
		span.RecordError(err)
		return nil, err
	}

	service.PublishProfileEvent(uc.publisher, uc.logger, event.ProfileEventPayload{
		EventType:   event.ProfileEventCreated,
		UserID:      p.UserID,
		ProfileID:   p.ID,
		ProfileType: string(user.TypeEmployer),
	})

	return &CreateProfileOutput{ProfileID: p.ID}, nil
}

type GetProfileInput struct {
	UserID uuid.UUID
}

type GetProfileOutput struct {
	Profile *employer.Profile
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	p, err := uc.profileRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, employer.ErrProfileNotFound) {
			return nil, apperror.NewNotFound("employer profile", input.UserID.String())
		}
		return nil, apperror.NewInternal("failed to load employer profile", err)
	}
	return &GetProfileOutput{Profile: p}, nil
}
