package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoCodeAlone/folio/modules/auth"
)

// MemoryStore keeps everything in maps for the life of the process.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int]auth.User
	sections  map[int]Section
	projects  map[int]Project
	currentID int
	lastOrder int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int]auth.User),
		sections: make(map[int]Section),
		projects: make(map[int]Project),
	}
}

var _ Storage = (*MemoryStore)(nil)

// nextID must be called with mu held.
func (s *MemoryStore) nextID() int {
	s.currentID++
	return s.currentID
}

func (s *MemoryStore) GetUser(_ context.Context, id int) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, userNotFound())
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, userNotFound())
}

func (s *MemoryStore) CreateUser(_ context.Context, user auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: %q", auth.ErrUserAlreadyExists, user.Username)
		}
	}
	user.ID = s.nextID()
	s.users[user.ID] = user
	return &user, nil
}

func (s *MemoryStore) GetSections(_ context.Context) ([]Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Section, 0, len(s.sections))
	for _, sec := range s.sections {
		out = append(out, sec.clone())
	}
	sortSections(out)
	return out, nil
}

func (s *MemoryStore) GetSection(_ context.Context, id int) (*Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[id]
	if !ok {
		return nil, fmt.Errorf("section %d: %w", id, ErrNotFound)
	}
	sec = sec.clone()
	return &sec, nil
}

func (s *MemoryStore) CreateSection(_ context.Context, in SectionInsert) (*Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec := Section{
		ID:       s.nextID(),
		Name:     in.Name,
		Content:  cloneRaw(in.Content),
		IsPublic: isPublic(in),
	}
	s.sections[sec.ID] = sec
	sec = sec.clone()
	return &sec, nil
}

func (s *MemoryStore) UpdateSection(_ context.Context, id int, patch SectionPatch, check SectionCheck) (*Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[id]
	if !ok {
		return nil, fmt.Errorf("section %d: %w", id, ErrNotFound)
	}
	sec = sec.apply(patch)
	if check != nil {
		if err := check(sec.clone()); err != nil {
			return nil, err
		}
	}
	s.sections[id] = sec
	sec = sec.clone()
	return &sec, nil
}

func (s *MemoryStore) DeleteSection(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sections, id)
	return nil
}

func (s *MemoryStore) GetProjects(_ context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.clone())
	}
	sortProjects(out)
	return out, nil
}

func (s *MemoryStore) GetProject(_ context.Context, id int) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	p = p.clone()
	return &p, nil
}

func (s *MemoryStore) CreateProject(_ context.Context, in ProjectInsert) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Project{
		ID:          s.nextID(),
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Link:        cloneString(in.Link),
	}
	if in.Order != nil {
		p.Order = *in.Order
	} else {
		s.lastOrder++
		p.Order = s.lastOrder
	}
	s.projects[p.ID] = p
	p = p.clone()
	return &p, nil
}

func (s *MemoryStore) UpdateProject(_ context.Context, id int, patch ProjectPatch, check ProjectCheck) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	p = p.apply(patch)
	if check != nil {
		if err := check(p.clone()); err != nil {
			return nil, err
		}
	}
	s.projects[id] = p
	p = p.clone()
	return &p, nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
