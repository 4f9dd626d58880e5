// Package memstore provides in-memory implementations of the repository and
// store interfaces for use-case and handler tests.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/skill"
	"github.com/khoahotran/talent-forge/internal/domain/user"
)

type tables struct {
	users       map[uuid.UUID]user.User
	employers   map[uuid.UUID]employer.Profile  // keyed by user id
	seekers     map[uuid.UUID]jobseeker.Profile // keyed by user id, children stored apart
	educations  map[uuid.UUID][]jobseeker.Education
	experiences map[uuid.UUID][]jobseeker.Experience
	certs       map[uuid.UUID][]jobseeker.Certification
	skills      map[string]skill.Skill
	links       map[uuid.UUID][]jobseeker.SkillLink // keyed by profile id
}

func newTables() tables {
	return tables{
		users:       map[uuid.UUID]user.User{},
		employers:   map[uuid.UUID]employer.Profile{},
		seekers:     map[uuid.UUID]jobseeker.Profile{},
		educations:  map[uuid.UUID][]jobseeker.Education{},
		experiences: map[uuid.UUID][]jobseeker.Experience{},
		certs:       map[uuid.UUID][]jobseeker.Certification{},
		skills:      map[string]skill.Skill{},
		links:       map[uuid.UUID][]jobseeker.SkillLink{},
	}
}

func cloneSlices[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func (t tables) clone() tables {
	return tables{
		users:       maps.Clone(t.users),
		employers:   maps.Clone(t.employers),
		seekers:     maps.Clone(t.seekers),
		educations:  cloneSlices(t.educations),
		experiences: cloneSlices(t.experiences),
		certs:       cloneSlices(t.certs),
		skills:      maps.Clone(t.skills),
		links:       cloneSlices(t.links),
	}
}

// DB is a process-local database. Transactions are serialized and roll back by
// restoring a snapshot.
type DB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables

	// Fail, when set, is consulted before every write; a non-nil return aborts
	// the write with that error. The argument names the operation, e.g.
	// "jobseeker.AddEducations".
	Fail func(op string) error
}

func New() *DB {
	return &DB{t: newTables()}
}

func (db *DB) fail(op string) error {
	if db.Fail == nil {
		return nil
	}
	return db.Fail(op)
}

func (db *DB) Users() *Users           { return &Users{db: db} }
func (db *DB) Employers() *Employers   { return &Employers{db: db} }
func (db *DB) JobSeekers() *JobSeekers { return &JobSeekers{db: db} }
func (db *DB) Skills() *Skills         { return &Skills{db: db} }

// WithinTx implements jobseeker.UnitOfWork.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, s jobseeker.Stores) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.t.clone()
	db.mu.Unlock()

	err := fn(ctx, jobseeker.Stores{Profiles: db.JobSeekers(), Skills: db.Skills()})
	if err != nil {
		db.mu.Lock()
		db.t = snapshot
		db.mu.Unlock()
	}
	return err
}

// Counts reports row counts per table, for atomicity assertions.
type Counts struct {
	Users, Employers, JobSeekers, Educations, Experiences, Certifications, Skills, SkillLinks int
}

func (db *DB) Counts() Counts {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := Counts{
		Users:      len(db.t.users),
		Employers:  len(db.t.employers),
		JobSeekers: len(db.t.seekers),
		Skills:     len(db.t.skills),
	}
	for _, v := range db.t.educations {
		c.Educations += len(v)
	}
	for _, v := range db.t.experiences {
		c.Experiences += len(v)
	}
	for _, v := range db.t.certs {
		c.Certifications += len(v)
	}
	for _, v := range db.t.links {
		c.SkillLinks += len(v)
	}
	return c
}
