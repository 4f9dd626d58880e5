package auth

import (
	"context"
	"errors"

	"github.com/khoahotran/talent-forge/internal/domain/session"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

type LogoutUseCase struct {
	sessions session.Store
}

func NewLogoutUseCase(sessions session.Store) *LogoutUseCase {
	return &LogoutUseCase{sessions: sessions}
}

type LogoutInput struct {
	SessionID string
}

// Execute is idempotent: revoking an unknown or expired session succeeds.
func (uc *LogoutUseCase) Execute(ctx context.Context, input LogoutInput) error {
	if input.SessionID == "" {
		return apperror.NewInvalidInput("session id is required", nil)
	}
	if err := uc.sessions.Revoke(ctx, input.SessionID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return apperror.NewInternal("failed to revoke session", err)
	}
	return nil
}
