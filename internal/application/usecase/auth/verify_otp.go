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
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
	"github.com/khoahotran/talent-forge/pkg/mfa"
)

const invalidParameters = "Invalid parameters. Please try again."

type VerifyOTPUseCase struct {
	userRepo  user.Repository
	pending   session.PendingStore
	issuer    *SessionIssuer
	engine    *mfa.Engine
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewVerifyOTPUseCase(
	repo user.Repository,
	pending session.PendingStore,
	issuer *SessionIssuer,
	engine *mfa.Engine,
	publisher service.EventPublisher,
	log logger.Logger,
) *VerifyOTPUseCase {
	return &VerifyOTPUseCase{
		userRepo:  repo,
		pending:   pending,
		issuer:    issuer,
		engine:    engine,
		publisher: publisher,
		logger:    log,
	}
}

type VerifyOTPInput struct {
	PendingToken string
	// UserID is optional; when set it must name the pending user.
	UserID string
	Code   string
}

type VerifyOTPOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      uuid.UUID
	MFAEnabled  bool
}

func (uc *VerifyOTPUseCase) Execute(ctx context.Context, input VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := tracer.Start(ctx, "VerifyOTP")
	defer span.End()

	p, err := resolvePending(ctx, uc.pending, input.PendingToken)
	if err != nil {
		return nil, err
	}
	if input.UserID != "" {
		claimed, err := uuid.Parse(input.UserID)
		if err != nil || claimed != p.UserID {
			return nil, apperror.NewInvalidInput(invalidParameters, nil)
		}
	}
	span.SetAttributes(attribute.String("user_id", p.UserID.String()), attribute.String("purpose", string(p.Purpose)))

	u, err := uc.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_ = uc.pending.Delete(ctx, p.Token)
			return nil, apperror.NewInvalidInput(invalidParameters, nil)
		}
		return nil, apperror.NewInternal("failed to load user", err)
	}
	if !u.HasSecret() {
		return nil, apperror.NewInvalidInput("mfa secret has not been issued; open the enrollment view first", user.ErrSecretMissing)
	}

	// A wrong code leaves the pending reference in place so the user can retry.
	if !uc.engine.VerifyNow(*u.MFASecret, strings.TrimSpace(input.Code)) {
		return nil, apperror.NewUnauthorized(authenticationFailed, nil)
	}

	if p.Purpose == session.PurposeEnrollment && !u.MFAEnabled {
		if err := uc.userRepo.SetMFAEnabled(ctx, u.ID, true); err != nil {
			uc.logger.Error("Failed to enable mfa", err, zap.String("user_id", u.ID.String()))
			return nil, apperror.NewInternal("failed to enable mfa", err)
		}
		u.MFAEnabled = true
		publishAccountEvent(uc.publisher, uc.logger, event.AccountEventMFAEnabled, u)
	}

	issued, err := uc.issuer.Issue(ctx, u)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// A concurrent correct submission may already have removed it.
	if err := uc.pending.Delete(ctx, p.Token); err != nil && !errors.Is(err, session.ErrPendingNotFound) {
		uc.logger.Warn("Failed to delete pending login", zap.Error(err), zap.String("user_id", u.ID.String()))
	}
	publishAccountEvent(uc.publisher, uc.logger, event.AccountEventLoggedIn, u)

	return &VerifyOTPOutput{
		AccessToken: issued.AccessToken,
		ExpiresAt:   issued.ExpiresAt,
		UserID:      u.ID,
		MFAEnabled:  u.MFAEnabled,
	}, nil
}

func resolvePending(ctx context.Context, store session.PendingStore, token string) (*session.Pending, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.NewInvalidInput(invalidParameters, nil)
	}
	p, err := store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrPendingNotFound) {
			return nil, apperror.NewInvalidInput(invalidParameters, err)
		}
		return nil, apperror.NewInternal("failed to load pending login", err)
	}
	return p, nil
}
