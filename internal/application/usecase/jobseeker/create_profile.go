package jobseeker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/internal/domain/validate"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

var tracer = otel.Tracer("jobseeker_usecase")

type EducationInput struct {
	Institution  string  `json:"institution" validate:"required,max=255"`
	Degree       string  `json:"degree" validate:"required,max=255"`
	FieldOfStudy string  `json:"field_of_study" validate:"max=255"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      *string `json:"end_date" validate:"omitempty,datetime=2006-01-02,notbefore=StartDate"`
	Description  string  `json:"description"`
}

type ExperienceInput struct {
	CompanyName      string  `json:"company_name" validate:"required,max=255"`
	Position         string  `json:"position" validate:"required,max=255"`
	StartDate        string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          *string `json:"end_date" validate:"omitempty,datetime=2006-01-02,notbefore=StartDate"`
	Location         string  `json:"location" validate:"required,max=255"`
	Responsibilities string  `json:"responsibilities"`
}

type CertificationInput struct {
	Name           string  `json:"name" validate:"required,max=255"`
	Issuer         string  `json:"issuer" validate:"required,max=255"`
	IssueDate      string  `json:"issue_date" validate:"required,datetime=2006-01-02"`
	ExpirationDate *string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02,notbefore=IssueDate"`
	CredentialURL  string  `json:"credential_url" validate:"omitempty,http_url"`
}

type CreateProfileInput struct {
	UserID   uuid.UUID `json:"-"`
	UserType user.Type `json:"-"`

	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=255"`
	Role        string `json:"role" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Industry    string `json:"industry" validate:"required,max=100"`
	About       string `json:"about"`

	Educations     []EducationInput     `json:"educations" validate:"dive"`
	Experiences    []ExperienceInput    `json:"job_experiences" validate:"dive"`
	Certifications []CertificationInput `json:"certifications" validate:"dive"`
	Skills         []string             `json:"skills" validate:"dive,required,max=100"`
	// SkillProficiencies maps a skill name to its proficiency; unlisted skills
	// default to Beginner.
	SkillProficiencies map[string]string `json:"skill_proficiencies" validate:"omitempty,dive,keys,required,max=100,endkeys,oneof=Beginner Intermediate Advanced Expert"`
}

type CreateProfileOutput struct {
	ProfileID uuid.UUID
}

type CreateProfileUseCase struct {
	uow       jobseeker.UnitOfWork
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewCreateProfileUseCase(uow jobseeker.UnitOfWork, publisher service.EventPublisher, log logger.Logger) *CreateProfileUseCase {
	return &CreateProfileUseCase{uow: uow, publisher: publisher, logger: log}
}

type skillRequest struct {
	name        string
	proficiency jobseeker.Proficiency
}

// Execute validates the whole payload first and then writes the profile, its
// child rows and skill links in one transaction. Nothing is persisted unless
// everything is.
func (uc *CreateProfileUseCase) Execute(ctx context.Context, input CreateProfileInput) (*CreateProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "CreateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	if input.UserType != user.TypeJobSeeker {
		return nil, apperror.NewPermissionDenied("only job seekers can create a job seeker profile")
	}

	input = normalize(input)
	errs, err := validate.Struct(input)
	if err != nil {
		return nil, apperror.NewInternal("failed to validate profile", err)
	}
	if !errs.Empty() {
		return nil, apperror.NewValidation(errs)
	}
	profile, skills := buildProfile(input)

	err = uc.uow.WithinTx(ctx, func(ctx context.Context, s jobseeker.Stores) error {
		if err := s.Profiles.Create(ctx, profile); err != nil {
			return err
		}
		if err := s.Profiles.AddEducations(ctx, profile.ID, profile.Educations); err != nil {
			return err
		}
		if err := s.Profiles.AddExperiences(ctx, profile.ID, profile.Experiences); err != nil {
			return err
		}
		if err := s.Profiles.AddCertifications(ctx, profile.ID, profile.Certifications); err != nil {
			return err
		}
		for _, req := range skills {
			sk, err := s.Skills.GetOrCreate(ctx, req.name)
			if err != nil {
				return err
			}
			if _, err := s.Profiles.LinkSkill(ctx, profile.ID, sk.ID, req.proficiency); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, jobseeker.ErrProfileExists) {
			return nil, apperror.NewConflict("job seeker profile", "user_id", input.UserID.String())
		}
		uc.logger.Error("Failed to save job seeker profile", err, zap.String("user_id", input.UserID.String()))
		err = apperror.NewInternal("failed to save profile", err)
		span.RecordError(err)
		return nil, err
	}

	service.PublishProfileEvent(uc.publisher, uc.logger, event.ProfileEventPayload{
		EventType:   event.ProfileEventCreated,
		UserID:      profile.UserID,
		ProfileID:   profile.ID,
		ProfileType: string(user.TypeJobSeeker),
	})

	return &CreateProfileOutput{ProfileID: profile.ID}, nil
}

// normalize trims the payload before validation. A blank optional date counts
// as absent.
func normalize(in CreateProfileInput) CreateProfileInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Location = strings.TrimSpace(in.Location)
	in.Role = strings.TrimSpace(in.Role)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Industry = strings.TrimSpace(in.Industry)

	educations := make([]EducationInput, len(in.Educations))
	for i, e := range in.Educations {
		e.Institution = strings.TrimSpace(e.Institution)
		e.Degree = strings.TrimSpace(e.Degree)
		e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = trimOptional(e.EndDate)
		educations[i] = e
	}
	in.Educations = educations

	experiences := make([]ExperienceInput, len(in.Experiences))
	for i, e := range in.Experiences {
		e.CompanyName = strings.TrimSpace(e.CompanyName)
		e.Position = strings.TrimSpace(e.Position)
		e.Location = strings.TrimSpace(e.Location)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = trimOptional(e.EndDate)
		experiences[i] = e
	}
	in.Experiences = experiences

	certifications := make([]CertificationInput, len(in.Certifications))
	for i, c := range in.Certifications {
		c.Name = strings.TrimSpace(c.Name)
		c.Issuer = strings.TrimSpace(c.Issuer)
		c.IssueDate = strings.TrimSpace(c.IssueDate)
		c.ExpirationDate = trimOptional(c.ExpirationDate)
		c.CredentialURL = strings.TrimSpace(c.CredentialURL)
		certifications[i] = c
	}
	in.Certifications = certifications

	skills := make([]string, len(in.Skills))
	for i, name := range in.Skills {
		skills[i] = strings.TrimSpace(name)
	}
	in.Skills = skills

	if in.SkillProficiencies != nil {
		byName := make(map[string]string, len(in.SkillProficiencies))
		for name, prof := range in.SkillProficiencies {
			byName[strings.TrimSpace(name)] = strings.TrimSpace(prof)
		}
		in.SkillProficiencies = byName
	}
	return in
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// buildProfile maps an input that has passed validation onto the aggregate.
func buildProfile(input CreateProfileInput) (*jobseeker.Profile, []skillRequest) {
	now := time.Now().UTC()

	p := &jobseeker.Profile{
		ID:          uuid.New(),
		UserID:      input.UserID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Location:    input.Location,
		Role:        input.Role,
		PhoneNumber: input.PhoneNumber,
		Industry:    input.Industry,
		About:       input.About,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	p.Educations = make([]jobseeker.Education, 0, len(input.Educations))
	for _, in := range input.Educations {
		p.Educations = append(p.Educations, jobseeker.Education{
			ID:           uuid.New(),
			Institution:  in.Institution,
			Degree:       in.Degree,
			FieldOfStudy: in.FieldOfStudy,
			StartDate:    validate.ParseDate(in.StartDate),
			EndDate:      validate.ParseOptionalDate(in.EndDate),
			Description:  in.Description,
		})
	}

	p.Experiences = make([]jobseeker.Experience, 0, len(input.Experiences))
	for _, in := range input.Experiences {
		p.Experiences = append(p.Experiences, jobseeker.Experience{
			ID:               uuid.New(),
			CompanyName:      in.CompanyName,
			Position:         in.Position,
			StartDate:        validate.ParseDate(in.StartDate),
			EndDate:          validate.ParseOptionalDate(in.EndDate),
			Location:         in.Location,
			Responsibilities: in.Responsibilities,
		})
	}

	p.Certifications = make([]jobseeker.Certification, 0, len(input.Certifications))
	for _, in := range input.Certifications {
		p.Certifications = append(p.Certifications, jobseeker.Certification{
			ID:             uuid.New(),
			Name:           in.Name,
			Issuer:         in.Issuer,
			IssueDate:      validate.ParseDate(in.IssueDate),
			ExpirationDate: validate.ParseOptionalDate(in.ExpirationDate),
			CredentialURL:  in.CredentialURL,
		})
	}

	return p, buildSkills(input)
}

// buildSkills de-duplicates names, keeping first-seen order.
func buildSkills(input CreateProfileInput) []skillRequest {
	seen := make(map[string]bool, len(input.Skills))
	out := make([]skillRequest, 0, len(input.Skills))
	for _, name := range input.Skills {
		if seen[name] {
			continue
		}
		seen[name] = true

		prof := jobseeker.DefaultProficiency
		if raw, ok := input.SkillProficiencies[name]; ok {
			if parsed, err := jobseeker.ParseProficiency(raw); err == nil {
				prof = parsed
			}
		}
		out = append(out, skillRequest{name: name, proficiency: prof})
	}
	return out
}
