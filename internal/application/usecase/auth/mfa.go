package auth

import (
	"context"
	"errors"
	"strings"

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

// MFAUseCase drives the enrollment state machine:
// NoSecret -> SecretIssued -> Enrolled, with disable going back to SecretIssued.
type MFAUseCase struct {
	userRepo  user.Repository
	pending   session.PendingStore
	engine    *mfa.Engine
	qrSize    int
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewMFAUseCase(
	repo user.Repository,
	pending session.PendingStore,
	engine *mfa.Engine,
	qrSize int,
	publisher service.EventPublisher,
	log logger.Logger,
) *MFAUseCase {
	return &MFAUseCase{
		userRepo:  repo,
		pending:   pending,
		engine:    engine,
		qrSize:    qrSize,
		publisher: publisher,
		logger:    log,
	}
}

type EnrollInput struct {
	UserID uuid.UUID
}

type EnrollOutput struct {
	ProvisioningURI string
	QRCode          string
	State           user.EnrollmentState
}

// ExecuteEnroll issues a secret on first use and always returns the stored
// one, so re-enrolling after a disable shows the same code.
func (uc *MFAUseCase) ExecuteEnroll(ctx context.Context, input EnrollInput) (*EnrollOutput, error) {
	ctx, span := tracer.Start(ctx, "EnrollMFA")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	u, err := uc.loadUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if !u.HasSecret() {
		secret, err := uc.engine.GenerateSecret()
		if err != nil {
			return nil, apperror.NewInternal("failed to generate mfa secret", err)
		}
		stored, err := uc.userRepo.AssignMFASecret(ctx, u.ID, secret)
		if err != nil {
			uc.logger.Error("Failed to store mfa secret", err, zap.String("user_id", u.ID.String()))
			return nil, apperror.NewInternal("failed to store mfa secret", err)
		}
		u.MFASecret = &stored
	}

	uri, err := uc.engine.ProvisioningURI(*u.MFASecret, u.Email, uc.engine.Issuer())
	if err != nil {
		return nil, apperror.NewInternal("failed to build provisioning uri", err)
	}
	qr, err := uc.engine.QRCodeDataURI(uri, uc.qrSize)
	if err != nil {
		return nil, apperror.NewInternal("failed to render qr code", err)
	}

	return &EnrollOutput{ProvisioningURI: uri, QRCode: qr, State: u.EnrollmentState()}, nil
}

// ExecuteEnrollPending is the enrollment view reached right after signup. Only
// enrollment references qualify: a login reference proves the password alone
// and must never reveal the secret.
func (uc *MFAUseCase) ExecuteEnrollPending(ctx context.Context, pendingToken string) (*EnrollOutput, error) {
	p, err := resolvePending(ctx, uc.pending, pendingToken)
	if err != nil {
		return nil, err
	}
	if p.Purpose != session.PurposeEnrollment {
		return nil, apperror.NewInvalidInput(invalidParameters, nil)
	}
	return uc.ExecuteEnroll(ctx, EnrollInput{UserID: p.UserID})
}

type ConfirmInput struct {
	UserID uuid.UUID
	Code   string
}

type ConfirmOutput struct {
	MFAEnabled bool
}

func (uc *MFAUseCase) ExecuteConfirm(ctx context.Context, input ConfirmInput) (*ConfirmOutput, error) {
	ctx, span := tracer.Start(ctx, "ConfirmMFA")
	defer span.End()

	u, err := uc.loadUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := u.EnableMFA(); err != nil {
		return nil, apperror.NewInvalidInput("mfa secret has not been issued; request the qr code first", err)
	}
	if !uc.engine.VerifyNow(*u.MFASecret, strings.TrimSpace(input.Code)) {
		return nil, apperror.NewUnauthorized(authenticationFailed, nil)
	}

	if err := uc.userRepo.SetMFAEnabled(ctx, u.ID, true); err != nil {
		return nil, apperror.NewInternal("failed to enable mfa", err)
	}
	publishAccountEvent(uc.publisher, uc.logger, event.AccountEventMFAEnabled, u)
	return &ConfirmOutput{MFAEnabled: true}, nil
}

type DisableInput struct {
	UserID uuid.UUID
}

type DisableOutput struct {
	// Changed is false when MFA was already off.
	Changed bool
}

// ExecuteDisable clears the enabled flag and keeps the secret.
func (uc *MFAUseCase) ExecuteDisable(ctx context.Context, input DisableInput) (*DisableOutput, error) {
	ctx, span := tracer.Start(ctx, "DisableMFA")
	defer span.End()

	u, err := uc.loadUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !u.MFAEnabled {
		return &DisableOutput{Changed: false}, nil
	}

	if err := uc.userRepo.SetMFAEnabled(ctx, u.ID, false); err != nil {
		return nil, apperror.NewInternal("failed to disable mfa", err)
	}
	u.DisableMFA()
	publishAccountEvent(uc.publisher, uc.logger, event.AccountEventMFADisabled, u)
	return &DisableOutput{Changed: true}, nil
}

func (uc *MFAUseCase) loadUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := uc.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperror.NewNotFound("user", id.String())
		}
		return nil, apperror.NewInternal("failed to load user", err)
	}
	return u, nil
}
