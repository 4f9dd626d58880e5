package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/session"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/auth"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

var tracer = otel.Tracer("auth_usecase")

// authenticationFailed is the only detail a failed password or code check
// reports, so responses do not reveal which factor was wrong.
const authenticationFailed = "authentication failed"

type LoginUseCase struct {
	userRepo   user.Repository
	pending    session.PendingStore
	issuer     *SessionIssuer
	pendingTTL time.Duration
	publisher  service.EventPublisher
	logger     logger.Logger
}

func NewLoginUseCase(
	repo user.Repository,
	pending session.PendingStore,
	issuer *SessionIssuer,
	pendingTTL time.Duration,
	publisher service.EventPublisher,
	log logger.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:   repo,
		pending:    pending,
		issuer:     issuer,
		pendingTTL: pendingTTL,
		publisher:  publisher,
		logger:     log,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput carries either a session (AccessToken) or the pending token the
// OTP step must present. EnrollmentRequired marks an account that never
// confirmed a code: its token opens the enrollment view first.
type LoginOutput struct {
	AccessToken        string
	ExpiresAt          time.Time
	MFARequired        bool
	EnrollmentRequired bool
	PendingToken       string
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	u, err := uc.findByEmail(ctx, input.Email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if u == nil {
		// Same bcrypt cost as a real check so response time does not reveal
		// whether the email exists.
		auth.BurnPasswordCheck(input.Password)
		return nil, apperror.NewUnauthorized(authenticationFailed, nil)
	}
	if !auth.CheckPasswordHash(input.Password, u.PasswordHash) {
		return nil, apperror.NewUnauthorized(authenticationFailed, nil)
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))

	// MFA is mandatory until the first code is confirmed; only an account that
	// enrolled and later disabled MFA logs in with the password alone.
	if u.MFAEnabled || u.EnrollmentPending() {
		purpose := session.PurposeLogin
		if !u.MFAEnabled {
			purpose = session.PurposeEnrollment
		}
		p := session.Pending{
			Token:     uuid.NewString(),
			UserID:    u.ID,
			Purpose:   purpose,
			CreatedAt: time.Now().UTC(),
		}
		if err := uc.pending.Put(ctx, p, uc.pendingTTL); err != nil {
			uc.logger.Error("Failed to store pending login", err, zap.String("user_id", u.ID.String()))
			err = apperror.NewInternal("failed to store pending login", err)
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.String("purpose", string(purpose)))
		return &LoginOutput{
			MFARequired:        true,
			EnrollmentRequired: purpose == session.PurposeEnrollment,
			PendingToken:       p.Token,
		}, nil
	}

	issued, err := uc.issuer.Issue(ctx, u)
	if err != nil {
		uc.logger.Error("Failed to establish session", err, zap.String("user_id", u.ID.String()))
		span.RecordError(err)
		return nil, err
	}
	publishAccountEvent(uc.publisher, uc.logger, event.AccountEventLoggedIn, u)
	return &LoginOutput{AccessToken: issued.AccessToken, ExpiresAt: issued.ExpiresAt}, nil
}

// findByEmail returns (nil, nil) for a malformed or unknown address.
func (uc *LoginUseCase) findByEmail(ctx context.Context, raw string) (*user.User, error) {
	email, err := user.NormalizeEmail(raw)
	if err != nil {
		return nil, nil
	}
	u, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil
		}
		return nil, apperror.NewInternal("failed to load user", err)
	}
	return u, nil
}
