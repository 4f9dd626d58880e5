package jobseeker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/skill"
)

type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "Beginner"
	ProficiencyIntermediate Proficiency = "Intermediate"
	ProficiencyAdvanced     Proficiency = "Advanced"
	ProficiencyExpert       Proficiency = "Expert"

	DefaultProficiency = ProficiencyBeginner
)

var (
	ErrProfileNotFound    = errors.New("job seeker profile not found")
	ErrProfileExists      = errors.New("job seeker profile already exists")
	ErrInvalidProficiency = errors.New("proficiency must be Beginner, Intermediate, Advanced or Expert")
)

func ParseProficiency(s string) (Proficiency, error) {
	switch p := Proficiency(s); p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyExpert:
		return p, nil
	}
	return "", ErrInvalidProficiency
}

type Education struct {
	ID           uuid.UUID  `json:"id"`
	Institution  string     `json:"institution"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"field_of_study"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Description  string     `json:"description"`
}

type Experience struct {
	ID               uuid.UUID  `json:"id"`
	CompanyName      string     `json:"company_name"`
	Position         string     `json:"position"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Location         string     `json:"location"`
	Responsibilities string     `json:"responsibilities"`
}

type Certification struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Issuer         string     `json:"issuer"`
	IssueDate      time.Time  `json:"issue_date"`
	ExpirationDate *time.Time `json:"expiration_date"`
	CredentialURL  string     `json:"credential_url"`
}

// SkillLink is one row of the profile/skill join.
type SkillLink struct {
	SkillID     uuid.UUID   `json:"skill_id"`
	Name        string      `json:"name"`
	Proficiency Proficiency `json:"proficiency"`
}

type Profile struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	Location            string          `json:"location"`
	Role                string          `json:"role"`
	PhoneNumber         string          `json:"phone_number"`
	Industry            string          `json:"industry"`
	About               string          `json:"about"`
	PictureURL          *string         `json:"picture_url"`
	PictureThumbnailURL *string         `json:"picture_thumbnail_url"`
	ResumeURL           *string         `json:"resume_url"`
	Educations          []Education     `json:"educations"`
	Experiences         []Experience    `json:"job_experiences"`
	Certifications      []Certification `json:"certifications"`
	Skills              []SkillLink     `json:"skills"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type Repository interface {
	asset.Store
	// Create inserts the profile row only; it returns ErrProfileExists when the
	// user already owns one.
	Create(ctx context.Context, p *Profile) error
	AddEducations(ctx context.Context, profileID uuid.UUID, items []Education) error
	AddExperiences(ctx context.Context, profileID uuid.UUID, items []Experience) error
	AddCertifications(ctx context.Context, profileID uuid.UUID, items []Certification) error
	// LinkSkill reports false when the pair already existed.
	LinkSkill(ctx context.Context, profileID, skillID uuid.UUID, p Proficiency) (bool, error)
	// FindByUserID loads the full aggregate.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Stores are the repositories bound to one transaction.
type Stores struct {
	Profiles Repository
	Skills   skill.Repository
}

// UnitOfWork runs fn in a single transaction: it commits when fn returns nil
// and rolls back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
