package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/session"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/internal/domain/validate"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/auth"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

// bcrypt ignores everything past 72 bytes. validator's max counts runes, so
// the byte limit is checked separately.
const maxPasswordBytes = 72

type SignupUseCase struct {
	userRepo   user.Repository
	pending    session.PendingStore
	pendingTTL time.Duration
	publisher  service.EventPublisher
	logger     logger.Logger
}

func NewSignupUseCase(
	repo user.Repository,
	pending session.PendingStore,
	pendingTTL time.Duration,
	publisher service.EventPublisher,
	log logger.Logger,
) *SignupUseCase {
	return &SignupUseCase{userRepo: repo, pending: pending, pendingTTL: pendingTTL, publisher: publisher, logger: log}
}

type SignupInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	// UserType also takes the legacy numeric choices.
	UserType string `json:"user_type" validate:"required,oneof=job_seeker jobseeker employer 1 2"`
}

type SignupOutput struct {
	UserID uuid.UUID
	// PendingToken opens the enrollment view; the account gets a session only
	// after its first code is confirmed.
	PendingToken string
}

func (uc *SignupUseCase) Execute(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	ctx, span := tracer.Start(ctx, "Signup")
	defer span.End()

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.UserType = strings.ToLower(strings.TrimSpace(input.UserType))
	errs, err := validate.Struct(input)
	if err != nil {
		return nil, apperror.NewInternal("failed to validate signup", err)
	}
	if _, bad := errs["password"]; !bad && len(input.Password) > maxPasswordBytes {
		errs.Add("password", "must be at most 72 bytes")
	}
	if !errs.Empty() {
		return nil, apperror.NewValidation(errs)
	}
	email := input.Email
	userType, err := user.ParseType(input.UserType)
	if err != nil {
		return nil, apperror.NewInternal("failed to resolve user type", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Type:         userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, apperror.NewConflict("user", "email", email)
		}
		uc.logger.Error("Failed to create user", err)
		err = apperror.NewInternal("failed to create user", err)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))

	p := session.Pending{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Purpose:   session.PurposeEnrollment,
		CreatedAt: now,
	}
	if err := uc.pending.Put(ctx, p, uc.pendingTTL); err != nil {
		// The account exists; the user can still log in and enroll from /api/me.
		uc.logger.Error("Failed to store enrollment reference", err, zap.String("user_id", u.ID.String()))
		return nil, apperror.NewInternal("failed to start mfa enrollment", err)
	}

	publishAccountEvent(uc.publisher, uc.logger, event.AccountEventRegistered, u)
	return &SignupOutput{UserID: u.ID, PendingToken: p.Token}, nil
}
