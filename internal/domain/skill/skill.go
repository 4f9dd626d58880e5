package skill

import (
	"context"

	"github.com/google/uuid"
)

// Skill is shared reference data, deduplicated by exact (case-sensitive) name.
type Skill struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Repository interface {
	// GetOrCreate returns the skill named name, inserting it if needed. A
	// concurrent insert of the same name resolves to the existing row.
	GetOrCreate(ctx context.Context, name string) (*Skill, error)
	List(ctx context.Context) ([]Skill, error)
}
