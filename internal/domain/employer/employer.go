package employer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/asset"
)

var (
	ErrProfileNotFound = errors.New("employer profile not found")
	ErrProfileExists   = errors.New("employer profile already exists")
)

type Profile struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Industry         string    `json:"industry"`
	CompanyWebsite   string    `json:"company_website"`
	Location         string    `json:"location"`
	NumberEmployees  int       `json:"number_employees"`
	About            string    `json:"about"`
	LogoURL          *string   `json:"logo_url"`
	LogoThumbnailURL *string   `json:"logo_thumbnail_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Repository interface {
	asset.Store
	// Create returns ErrProfileExists when the user already owns a profile.
	Create(ctx context.Context, p *Profile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}
