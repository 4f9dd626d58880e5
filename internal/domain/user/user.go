package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/validate"
)

type Type string

const (
	TypeJobSeeker Type = "job_seeker"
	TypeEmployer  Type = "employer"
)

var (
	ErrInvalidType   = errors.New("user type must be job_seeker or employer")
	ErrInvalidEmail  = errors.New("email is not a valid address")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email is already in use")
	ErrSecretMissing = errors.New("mfa secret has not been issued")
	ErrSecretIssued  = errors.New("mfa secret already issued")
)

// ParseType accepts the canonical names and the legacy numeric choices ("1", "2").
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job_seeker", "jobseeker", "1":
		return TypeJobSeeker, nil
	case "employer", "2":
		return TypeEmployer, nil
	}
	return "", ErrInvalidType
}

func (t Type) Valid() bool {
	return t == TypeJobSeeker || t == TypeEmployer
}

// NormalizeEmail lower-cases and trims an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

type EnrollmentState int

const (
	StateNoSecret EnrollmentState = iota
	StateSecretIssued
	StateEnrolled
)

func (s EnrollmentState) String() string {
	switch s {
	case StateSecretIssued:
		return "secret_issued"
	case StateEnrolled:
		return "enrolled"
	default:
		return "no_secret"
	}
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Type         Type      `json:"user_type"`
	MFASecret    *string   `json:"-"`
	MFAEnabled   bool      `json:"mfa_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// MFAConfirmedAt is set by the first accepted code and never cleared, so a
	// later disable is told apart from an enrollment that was never finished.
	MFAConfirmedAt *time.Time `json:"-"`
}

func (u *User) HasSecret() bool {
	return u.MFASecret != nil && *u.MFASecret != ""
}

// EnrollmentPending reports an account that has never confirmed a code. Login
// sends it back to enrollment instead of issuing a session.
func (u *User) EnrollmentPending() bool {
	return !u.MFAEnabled && u.MFAConfirmedAt == nil
}

func (u *User) EnrollmentState() EnrollmentState {
	switch {
	case u.HasSecret() && u.MFAEnabled:
		return StateEnrolled
	case u.HasSecret():
		return StateSecretIssued
	default:
		return StateNoSecret
	}
}

// AssignSecret moves NoSecret -> SecretIssued. An existing secret is never replaced.
func (u *User) AssignSecret(secret string) error {
	if u.HasSecret() {
		return ErrSecretIssued
	}
	u.MFASecret = &secret
	return nil
}

// EnableMFA moves SecretIssued -> Enrolled.
func (u *User) EnableMFA() error {
	if !u.HasSecret() {
		return ErrSecretMissing
	}
	u.MFAEnabled = true
	return nil
}

// DisableMFA moves Enrolled -> SecretIssued; the secret is kept so re-enabling
// does not need a new scan.
func (u *User) DisableMFA() {
	u.MFAEnabled = false
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// AssignMFASecret stores secret only if the user has none yet and returns
	// the secret that is stored afterwards.
	AssignMFASecret(ctx context.Context, id uuid.UUID, secret string) (string, error)
	SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}
