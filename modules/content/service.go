package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GoCodeAlone/folio"
)

// Service validates writes, applies them to the store and emits events.
// Both the REST API and the admin pages write through it.
type Service struct {
	store     Storage
	validator *Validator
	logger    folio.Logger
	subject   folio.Subject
}

func NewService(store Storage, validator *Validator, logger folio.Logger) *Service {
	return &Service{store: store, validator: validator, logger: logger}
}

func (s *Service) SetSubject(subject folio.Subject) {
	s.subject = subject
}

func (s *Service) Store() Storage {
	return s.store
}

// Sections lists sections, leaving out private ones unless includePrivate.
func (s *Service) Sections(ctx context.Context, includePrivate bool) ([]Section, error) {
	all, err := s.store.GetSections(ctx)
	if err != nil {
		return nil, err
	}
	if includePrivate {
		return all, nil
	}
	visible := make([]Section, 0, len(all))
	for _, sec := range all {
		if sec.IsPublic {
			visible = append(visible, sec)
		}
	}
	return visible, nil
}

func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	return s.store.GetProjects(ctx)
}

// CreateSection validates body as a section insert and stores it.
func (s *Service) CreateSection(ctx context.Context, body []byte) (*Section, error) {
	if err := s.validator.Body(SchemaSectionInsert, body); err != nil {
		return nil, err
	}
	var in SectionInsert
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.validator.SectionContent(in.Name, in.Content); err != nil {
		return nil, err
	}

	sec, err := s.store.CreateSection(ctx, in)
	if err != nil {
		return nil, err
	}
	s.emitEvent(ctx, EventTypeSectionCreated, map[string]any{"id": sec.ID, "name": sec.Name})
	return sec, nil
}

// UpdateSection validates body as a section patch and merges it into the
// section. The merged content is validated as a whole inside the store's
// update, so a concurrent write cannot slip between check and save.
func (s *Service) UpdateSection(ctx context.Context, id int, body []byte) (*Section, error) {
	if err := s.validator.Body(SchemaSectionPatch, body); err != nil {
		return nil, err
	}
	var patch SectionPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	sec, err := s.store.UpdateSection(ctx, id, patch, func(merged Section) error {
		return s.validator.SectionContent(merged.Name, merged.Content)
	})
	if err != nil {
		return nil, err
	}
	s.emitEvent(ctx, EventTypeSectionUpdated, map[string]any{"id": sec.ID, "name": sec.Name})
	return sec, nil
}

func (s *Service) DeleteSection(ctx context.Context, id int) error {
	if err := s.store.DeleteSection(ctx, id); err != nil {
		return err
	}
	s.emitEvent(ctx, EventTypeSectionDeleted, map[string]any{"id": id})
	return nil
}

// CreateProject validates body as a project insert and stores it.
func (s *Service) CreateProject(ctx context.Context, body []byte) (*Project, error) {
	if err := s.validator.Body(SchemaProjectInsert, body); err != nil {
		return nil, err
	}
	var in ProjectInsert
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	p, err := s.store.CreateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	s.emitEvent(ctx, EventTypeProjectCreated, map[string]any{"id": p.ID, "title": p.Title})
	return p, nil
}

func (s *Service) UpdateProject(ctx context.Context, id int, body []byte) (*Project, error) {
	if err := s.validator.Body(SchemaProjectPatch, body); err != nil {
		return nil, err
	}
	var patch ProjectPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	p, err := s.store.UpdateProject(ctx, id, patch, nil)
	if err != nil {
		return nil, err
	}
	s.emitEvent(ctx, EventTypeProjectUpdated, map[string]any{"id": p.ID, "title": p.Title})
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, id int) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.emitEvent(ctx, EventTypeProjectDeleted, map[string]any{"id": id})
	return nil
}

func (s *Service) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if s.subject == nil {
		return
	}
	event := folio.NewCloudEvent(eventType, "content-service", data, nil)
	if err := s.subject.NotifyObservers(ctx, event); err != nil {
		s.logger.Debug("Failed to emit content event", "eventType", eventType, "error", err)
	}
}
