package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/skill"
	"github.com/khoahotran/talent-forge/internal/domain/user"
)

type Users struct{ db *DB }

var _ user.Repository = (*Users)(nil)

func (r *Users) Create(_ context.Context, u *user.User) error {
	if err := r.db.fail("user.Create"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.t.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	r.db.t.users[u.ID] = *u
	return nil
}

func (r *Users) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.t.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.t.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *Users) AssignMFASecret(_ context.Context, id uuid.UUID, secret string) (string, error) {
	if err := r.db.fail("user.AssignMFASecret"); err != nil {
		return "", err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.t.users[id]
	if !ok {
		return "", user.ErrUserNotFound
	}
	if !u.HasSecret() {
		u.MFASecret = &secret
		u.UpdatedAt = time.Now().UTC()
		r.db.t.users[id] = u
	}
	return *u.MFASecret, nil
}

func (r *Users) SetMFAEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	if err := r.db.fail("user.SetMFAEnabled"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.t.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	if enabled && !u.HasSecret() {
		return user.ErrSecretMissing
	}
	u.MFAEnabled = enabled
	if enabled && u.MFAConfirmedAt == nil {
		now := time.Now().UTC()
		u.MFAConfirmedAt = &now
	}
	r.db.t.users[id] = u
	return nil
}

type Employers struct{ db *DB }

var _ employer.Repository = (*Employers)(nil)

func (r *Employers) Create(_ context.Context, p *employer.Profile) error {
	if err := r.db.fail("employer.Create"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.t.employers[p.UserID]; ok {
		return employer.ErrProfileExists
	}
	r.db.t.employers[p.UserID] = *p
	return nil
}

func (r *Employers) FindByUserID(_ context.Context, userID uuid.UUID) (*employer.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.t.employers[userID]
	if !ok {
		return nil, employer.ErrProfileNotFound
	}
	return &p, nil
}

func (r *Employers) ExistsForUser(_ context.Context, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.t.employers[userID]
	return ok, nil
}

func (r *Employers) SetAssetURL(_ context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	return r.update(userID, kind, func(p *employer.Profile) { p.LogoURL = &url })
}

func (r *Employers) SetThumbnailURL(_ context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	return r.update(userID, kind, func(p *employer.Profile) { p.LogoThumbnailURL = &url })
}

func (r *Employers) update(userID uuid.UUID, kind asset.Kind, fn func(p *employer.Profile)) error {
	if kind != asset.KindLogo {
		return asset.ErrInvalidKind
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.t.employers[userID]
	if !ok {
		return employer.ErrProfileNotFound
	}
	fn(&p)
	r.db.t.employers[userID] = p
	return nil
}

type JobSeekers struct{ db *DB }

var _ jobseeker.Repository = (*JobSeekers)(nil)

func (r *JobSeekers) Create(_ context.Context, p *jobseeker.Profile) error {
	if err := r.db.fail("jobseeker.Create"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.t.seekers[p.UserID]; ok {
		return jobseeker.ErrProfileExists
	}
	row := *p
	row.Educations, row.Experiences, row.Certifications, row.Skills = nil, nil, nil, nil
	r.db.t.seekers[p.UserID] = row
	return nil
}

func (r *JobSeekers) AddEducations(_ context.Context, profileID uuid.UUID, items []jobseeker.Education) error {
	if err := r.db.fail("jobseeker.AddEducations"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.t.educations[profileID] = append(r.db.t.educations[profileID], items...)
	return nil
}

func (r *JobSeekers) AddExperiences(_ context.Context, profileID uuid.UUID, items []jobseeker.Experience) error {
	if err := r.db.fail("jobseeker.AddExperiences"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.t.experiences[profileID] = append(r.db.t.experiences[profileID], items...)
	return nil
}

func (r *JobSeekers) AddCertifications(_ context.Context, profileID uuid.UUID, items []jobseeker.Certification) error {
	if err := r.db.fail("jobseeker.AddCertifications"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.t.certs[profileID] = append(r.db.t.certs[profileID], items...)
	return nil
}

func (r *JobSeekers) LinkSkill(_ context.Context, profileID, skillID uuid.UUID, p jobseeker.Proficiency) (bool, error) {
	if err := r.db.fail("jobseeker.LinkSkill"); err != nil {
		return false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.t.links[profileID] {
		if l.SkillID == skillID {
			return false, nil
		}
	}
	var name string
	for _, s := range r.db.t.skills {
		if s.ID == skillID {
			name = s.Name
		}
	}
	r.db.t.links[profileID] = append(r.db.t.links[profileID], jobseeker.SkillLink{SkillID: skillID, Name: name, Proficiency: p})
	return true, nil
}

func (r *JobSeekers) FindByUserID(_ context.Context, userID uuid.UUID) (*jobseeker.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.t.seekers[userID]
	if !ok {
		return nil, jobseeker.ErrProfileNotFound
	}
	p.Educations = append([]jobseeker.Education{}, r.db.t.educations[p.ID]...)
	p.Experiences = append([]jobseeker.Experience{}, r.db.t.experiences[p.ID]...)
	p.Certifications = append([]jobseeker.Certification{}, r.db.t.certs[p.ID]...)
	p.Skills = append([]jobseeker.SkillLink{}, r.db.t.links[p.ID]...)
	sort.Slice(p.Skills, func(i, j int) bool { return p.Skills[i].Name < p.Skills[j].Name })
	return &p, nil
}

func (r *JobSeekers) ExistsForUser(_ context.Context, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.t.seekers[userID]
	return ok, nil
}

func (r *JobSeekers) SetAssetURL(_ context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	return r.update(userID, func(p *jobseeker.Profile) error {
		switch kind {
		case asset.KindPicture:
			p.PictureURL = &url
		case asset.KindResume:
			p.ResumeURL = &url
		default:
			return asset.ErrInvalidKind
		}
		return nil
	})
}

func (r *JobSeekers) SetThumbnailURL(_ context.Context, userID uuid.UUID, kind asset.Kind, url string) error {
	return r.update(userID, func(p *jobseeker.Profile) error {
		if kind != asset.KindPicture {
			return asset.ErrInvalidKind
		}
		p.PictureThumbnailURL = &url
		return nil
	})
}

func (r *JobSeekers) update(userID uuid.UUID, fn func(p *jobseeker.Profile) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.t.seekers[userID]
	if !ok {
		return jobseeker.ErrProfileNotFound
	}
	if err := fn(&p); err != nil {
		return err
	}
	r.db.t.seekers[userID] = p
	return nil
}

type Skills struct{ db *DB }

var _ skill.Repository = (*Skills)(nil)

func (r *Skills) GetOrCreate(_ context.Context, name string) (*skill.Skill, error) {
	if err := r.db.fail("skill.GetOrCreate"); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if s, ok := r.db.t.skills[name]; ok {
		return &s, nil
	}
	s := skill.Skill{ID: uuid.New(), Name: name}
	r.db.t.skills[name] = s
	return &s, nil
}

func (r *Skills) List(_ context.Context) ([]skill.Skill, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]skill.Skill, 0, len(r.db.t.skills))
	for _, s := range r.db.t.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
