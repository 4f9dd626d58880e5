package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Purpose string

const (
	// PurposeLogin: password checked, OTP still owed.
	PurposeLogin Purpose = "login"
	// PurposeEnrollment: freshly signed-up account confirming its first code.
	PurposeEnrollment Purpose = "enrollment"
)

var (
	ErrPendingNotFound = errors.New("pending login not found or expired")
	ErrSessionNotFound = errors.New("session not found or expired")
)

// Pending binds a user who passed the password step to an opaque token until
// the OTP step completes.
type Pending struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Purpose   Purpose   `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
}

type PendingStore interface {
	Put(ctx context.Context, p Pending, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Pending, error)
	Delete(ctx context.Context, token string) error
}

// Session is a fully authenticated login, keyed by the access token's jti.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store interface {
	Create(ctx context.Context, s Session) error
	Exists(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}
