package http

import (
	"time"

	"github.com/google/uuid"

	accountUC "github.com/khoahotran/talent-forge/internal/application/usecase/account"
	employerUC "github.com/khoahotran/talent-forge/internal/application/usecase/employer"
	jobseekerUC "github.com/khoahotran/talent-forge/internal/application/usecase/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/validate"
)

// Auth DTOs

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	UserType        string `json:"user_type"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	PendingToken string `form:"pending_token" json:"pending_token"`
	UserID       string `form:"user_id" json:"user_id"`
	OTPCode      string `form:"otp_code" json:"otp_code" binding:"required,otpcode"`
}

type confirmMFARequest struct {
	OTPCode string `form:"otp_code" json:"otp_code" binding:"required,otpcode"`
}

type TokenDTO struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type PendingDTO struct {
	MFARequired        bool   `json:"mfa_required"`
	EnrollmentRequired bool   `json:"enrollment_required"`
	PendingToken       string `json:"pending_token"`
}

type EnrollmentDTO struct {
	QRCode          string `json:"qr_code"`
	ProvisioningURI string `json:"provisioning_uri"`
	State           string `json:"state"`
}

type AccountDTO struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	UserType   string    `json:"user_type"`
	MFAEnabled bool      `json:"mfa_enabled"`
	HasProfile bool      `json:"has_profile"`
	NextStep   string    `json:"next_step"`
}

func ToAccountDTO(out *accountUC.OverviewOutput) AccountDTO {
	return AccountDTO{
		ID:         out.User.ID,
		Email:      out.User.Email,
		UserType:   string(out.User.Type),
		MFAEnabled: out.User.MFAEnabled,
		HasProfile: out.HasProfile,
		NextStep:   string(out.NextStep),
	}
}

// Employer DTOs

type createEmployerProfileRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Industry        string `json:"industry"`
	CompanyWebsite  string `json:"company_website"`
	Location        string `json:"location"`
	NumberEmployees int    `json:"number_employees"`
	About           string `json:"about"`
}

func (r *createEmployerProfileRequest) toInput() employerUC.CreateProfileInput {
	return employerUC.CreateProfileInput{
		Name:            r.Name,
		Email:           r.Email,
		Industry:        r.Industry,
		CompanyWebsite:  r.CompanyWebsite,
		Location:        r.Location,
		NumberEmployees: r.NumberEmployees,
		About:           r.About,
	}
}

type EmployerProfileDTO struct {
	ID               string    `json:"id"`
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

func ToEmployerProfileDTO(p *employer.Profile) EmployerProfileDTO {
	return EmployerProfileDTO{
		ID:               p.ID.String(),
		Name:             p.Name,
		Email:            p.Email,
		Industry:         p.Industry,
		CompanyWebsite:   p.CompanyWebsite,
		Location:         p.Location,
		NumberEmployees:  p.NumberEmployees,
		About:            p.About,
		LogoURL:          p.LogoURL,
		LogoThumbnailURL: p.LogoThumbnailURL,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// Job seeker DTOs

type educationRequest struct {
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"field_of_study"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Description  string  `json:"description"`
}

type experienceRequest struct {
	CompanyName      string  `json:"company_name"`
	Position         string  `json:"position"`
	StartDate        string  `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Location         string  `json:"location"`
	Responsibilities string  `json:"responsibilities"`
}

type certificationRequest struct {
	Name           string  `json:"name"`
	Issuer         string  `json:"issuer"`
	IssueDate      string  `json:"issue_date"`
	ExpirationDate *string `json:"expiration_date"`
	CredentialURL  string  `json:"credential_url"`
}

// createJobSeekerProfileRequest carries no field rules; the use case validates
// the whole payload in one pass.
type createJobSeekerProfileRequest struct {
	FirstName          string                 `json:"first_name"`
	LastName           string                 `json:"last_name"`
	Location           string                 `json:"location"`
	Role               string                 `json:"role"`
	PhoneNumber        string                 `json:"phone_number"`
	Industry           string                 `json:"industry"`
	About              string                 `json:"about"`
	Educations         []educationRequest     `json:"educations"`
	Experiences        []experienceRequest    `json:"job_experiences"`
	Certifications     []certificationRequest `json:"certifications"`
	Skills             []string               `json:"skills"`
	SkillProficiencies map[string]string      `json:"skill_proficiencies"`
}

func (r *createJobSeekerProfileRequest) toInput() jobseekerUC.CreateProfileInput {
	in := jobseekerUC.CreateProfileInput{
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Location:           r.Location,
		Role:               r.Role,
		PhoneNumber:        r.PhoneNumber,
		Industry:           r.Industry,
		About:              r.About,
		Skills:             r.Skills,
		SkillProficiencies: r.SkillProficiencies,
	}
	for _, e := range r.Educations {
		in.Educations = append(in.Educations, jobseekerUC.EducationInput{
			Institution:  e.Institution,
			Degree:       e.Degree,
			FieldOfStudy: e.FieldOfStudy,
			StartDate:    e.StartDate,
			EndDate:      e.EndDate,
			Description:  e.Description,
		})
	}
	for _, e := range r.Experiences {
		in.Experiences = append(in.Experiences, jobseekerUC.ExperienceInput{
			CompanyName:      e.CompanyName,
			Position:         e.Position,
			StartDate:        e.StartDate,
			EndDate:          e.EndDate,
			Location:         e.Location,
			Responsibilities: e.Responsibilities,
		})
	}
	for _, c := range r.Certifications {
		in.Certifications = append(in.Certifications, jobseekerUC.CertificationInput{
			Name:           c.Name,
			Issuer:         c.Issuer,
			IssueDate:      c.IssueDate,
			ExpirationDate: c.ExpirationDate,
			CredentialURL:  c.CredentialURL,
		})
	}
	return in
}

type EducationDTO struct {
	ID           string  `json:"id"`
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"field_of_study"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Description  string  `json:"description"`
}

type ExperienceDTO struct {
	ID               string  `json:"id"`
	CompanyName      string  `json:"company_name"`
	Position         string  `json:"position"`
	StartDate        string  `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Location         string  `json:"location"`
	Responsibilities string  `json:"responsibilities"`
}

type CertificationDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Issuer         string  `json:"issuer"`
	IssueDate      string  `json:"issue_date"`
	ExpirationDate *string `json:"expiration_date"`
	CredentialURL  string  `json:"credential_url"`
}

type SkillDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

type JobSeekerProfileDTO struct {
	ID                  string             `json:"id"`
	FirstName           string             `json:"first_name"`
	LastName            string             `json:"last_name"`
	Location            string             `json:"location"`
	Role                string             `json:"role"`
	PhoneNumber         string             `json:"phone_number"`
	Industry            string             `json:"industry"`
	About               string             `json:"about"`
	PictureURL          *string            `json:"picture_url"`
	PictureThumbnailURL *string            `json:"picture_thumbnail_url"`
	ResumeURL           *string            `json:"resume_url"`
	Educations          []EducationDTO     `json:"educations"`
	Experiences         []ExperienceDTO    `json:"job_experiences"`
	Certifications      []CertificationDTO `json:"certifications"`
	Skills              []SkillDTO         `json:"skills"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

func formatDate(t time.Time) string {
	return t.Format(validate.DateLayout)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func ToJobSeekerProfileDTO(p *jobseeker.Profile) JobSeekerProfileDTO {
	dto := JobSeekerProfileDTO{
		ID:                  p.ID.String(),
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		Location:            p.Location,
		Role:                p.Role,
		PhoneNumber:         p.PhoneNumber,
		Industry:            p.Industry,
		About:               p.About,
		PictureURL:          p.PictureURL,
		PictureThumbnailURL: p.PictureThumbnailURL,
		ResumeURL:           p.ResumeURL,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}

	dto.Educations = make([]EducationDTO, len(p.Educations))
	for i, e := range p.Educations {
		dto.Educations[i] = EducationDTO{
			ID:           e.ID.String(),
			Institution:  e.Institution,
			Degree:       e.Degree,
			FieldOfStudy: e.FieldOfStudy,
			StartDate:    formatDate(e.StartDate),
			EndDate:      formatOptionalDate(e.EndDate),
			Description:  e.Description,
		}
	}
	dto.Experiences = make([]ExperienceDTO, len(p.Experiences))
	for i, e := range p.Experiences {
		dto.Experiences[i] = ExperienceDTO{
			ID:               e.ID.String(),
			CompanyName:      e.CompanyName,
			Position:         e.Position,
			StartDate:        formatDate(e.StartDate),
			EndDate:          formatOptionalDate(e.EndDate),
			Location:         e.Location,
			Responsibilities: e.Responsibilities,
		}
	}
	dto.Certifications = make([]CertificationDTO, len(p.Certifications))
	for i, c := range p.Certifications {
		dto.Certifications[i] = CertificationDTO{
			ID:             c.ID.String(),
			Name:           c.Name,
			Issuer:         c.Issuer,
			IssueDate:      formatDate(c.IssueDate),
			ExpirationDate: formatOptionalDate(c.ExpirationDate),
			CredentialURL:  c.CredentialURL,
		}
	}
	dto.Skills = make([]SkillDTO, len(p.Skills))
	for i, s := range p.Skills {
		dto.Skills[i] = SkillDTO{ID: s.SkillID.String(), Name: s.Name, Proficiency: string(s.Proficiency)}
	}
	return dto
}
