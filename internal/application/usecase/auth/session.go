package auth

import (
	"context"
	"time"

	"github.com/khoahotran/talent-forge/internal/domain/session"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/auth"
)

// SessionIssuer mints an access token and registers its session so that it can
// be revoked on logout.
type SessionIssuer struct {
	jwtSvc   *auth.JWTService
	sessions session.Store
	now      func() time.Time
}

func NewSessionIssuer(jwtSvc *auth.JWTService, sessions session.Store) *SessionIssuer {
	return &SessionIssuer{jwtSvc: jwtSvc, sessions: sessions, now: time.Now}
}

func (s *SessionIssuer) Issue(ctx context.Context, u *user.User) (*auth.IssuedToken, error) {
	issued, err := s.jwtSvc.GenerateToken(u.ID, string(u.Type))
	if err != nil {
		return nil, apperror.NewInternal("failed to generate token", err)
	}

	err = s.sessions.Create(ctx, session.Session{
		ID:        issued.SessionID,
		UserID:    u.ID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: issued.ExpiresAt,
	})
	if err != nil {
		return nil, apperror.NewInternal("failed to store session", err)
	}
	return issued, nil
}
