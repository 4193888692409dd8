package content

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/GoCodeAlone/folio/modules/auth"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedStore  = errors.New("unsupported content store")
	ErrDatabaseRequired  = errors.New("sqlite content store requires the database module")
	ErrInvalidSeed       = errors.New("invalid seed data")
	ErrRouterNotChi      = errors.New("chi.router service does not implement chi.Router")
	ErrValidatorMismatch = errors.New("jsonschema.service has unexpected type")
)

// Storage persists users, sections and projects. Users, sections and
// projects draw ids from one shared sequence starting at 1.
type Storage interface {
	auth.UserStore

	GetSections(ctx context.Context) ([]Section, error)
	GetSection(ctx context.Context, id int) (*Section, error)
	CreateSection(ctx context.Context, in SectionInsert) (*Section, error)
	// UpdateSection returns ErrNotFound for an unknown id. check, when not
	// nil, sees the merged section under the same lock or transaction as
	// the write; its error aborts the update and is returned as is.
	UpdateSection(ctx context.Context, id int, patch SectionPatch, check SectionCheck) (*Section, error)
	// DeleteSection succeeds for an unknown id.
	DeleteSection(ctx context.Context, id int) error

	GetProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int) (*Project, error)
	CreateProject(ctx context.Context, in ProjectInsert) (*Project, error)
	UpdateProject(ctx context.Context, id int, patch ProjectPatch, check ProjectCheck) (*Project, error)
	DeleteProject(ctx context.Context, id int) error

	Ping(ctx context.Context) error
}

// SectionCheck and ProjectCheck validate a record after a patch is merged
// and before it is stored.
type (
	SectionCheck func(Section) error
	ProjectCheck func(Project) error
)

// userNotFound matches both ErrNotFound and auth.ErrUserNotFound.
func userNotFound() error {
	return fmt.Errorf("%w: %w", ErrNotFound, auth.ErrUserNotFound)
}

func sortSections(sections []Section) {
	slices.SortFunc(sections, func(a, b Section) int { return cmp.Compare(a.ID, b.ID) })
}

func sortProjects(projects []Project) {
	slices.SortFunc(projects, func(a, b Project) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
}

func isPublic(in SectionInsert) bool {
	return in.IsPublic == nil || *in.IsPublic
}
