// Package content stores the portfolio's sections, projects and user
// accounts and serves them over a JSON API.
//
// Routes:
//
//	GET    /api/health
//	GET    /api/sections          public sections, or all when signed in
//	POST   /api/sections          signed in
//	PATCH  /api/sections/{id}     signed in
//	DELETE /api/sections/{id}     signed in
//	GET    /api/projects
//	POST   /api/projects          signed in
//	PATCH  /api/projects/{id}     signed in
//	DELETE /api/projects/{id}     signed in
//
// The module publishes its Storage as "content.storage", which also serves
// as the auth module's UserStore, and its Service as "content.service".
package content

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/database"
	"github.com/GoCodeAlone/folio/modules/jsonschema"
)

const (
	ModuleName         = "content"
	StorageServiceName = "content.storage"
	ServiceName        = "content.service"
)

type Module struct {
	config    *Config
	store     Storage
	service   *Service
	router    chi.Router
	databases *database.Module
	schemas   jsonschema.JSONSchemaService
	logger    folio.Logger
	subject   folio.Subject
}

func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app folio.Application) error {
	m.config = &Config{}
	app.RegisterConfigSection(m.Name(), folio.NewStdConfigProvider(m.config))
	return nil
}

func (m *Module) RegisterObservers(subject folio.Subject) error {
	m.subject = subject
	return nil
}

func (m *Module) RequiresServices() []folio.ServiceDependency {
	return []folio.ServiceDependency{
		{
			Name:               "chi.router",
			Required:           true,
			SatisfiesInterface: reflect.TypeOf((*chi.Router)(nil)).Elem(),
		},
		{
			Name:     "database.manager",
			Required: false,
		},
		{
			Name:               jsonschema.ServiceName,
			Required:           false,
			SatisfiesInterface: reflect.TypeOf((*jsonschema.JSONSchemaService)(nil)).Elem(),
		},
	}
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: StorageServiceName, Description: "Users, sections and projects", Instance: m.store},
		{Name: ServiceName, Description: "Validated content writes", Instance: m.service},
	}
}

func (m *Module) Constructor() folio.ModuleConstructor {
	return func(_ folio.Application, services map[string]any) (folio.Module, error) {
		router, ok := services["chi.router"].(chi.Router)
		if !ok {
			return nil, ErrRouterNotChi
		}
		m.router = router
		if dbs, ok := services["database.manager"].(*database.Module); ok {
			m.databases = dbs
		}
		if svc, ok := services[jsonschema.ServiceName]; ok && svc != nil {
			schemas, ok := svc.(jsonschema.JSONSchemaService)
			if !ok {
				return nil, ErrValidatorMismatch
			}
			m.schemas = schemas
		}
		return m, nil
	}
}

func (m *Module) Init(app folio.Application) error {
	m.logger = app.Logger()

	store, err := m.openStore(context.Background())
	if err != nil {
		return err
	}
	m.store = store

	if m.schemas == nil {
		m.schemas = jsonschema.NewJSONSchemaService()
	}
	validator, err := NewValidator(m.schemas)
	if err != nil {
		return err
	}

	m.service = NewService(m.store, validator, m.logger)
	m.service.SetSubject(m.subject)
	NewHandler(m.service, m.logger, m.config.MaxBodyBytes).RegisterRoutes(m.router)

	m.logger.Info("Content module initialized", "store", m.config.Store)
	return nil
}

func (m *Module) openStore(ctx context.Context) (Storage, error) {
	if m.config.Store != "sqlite" {
		return NewMemoryStore(), nil
	}
	if m.databases == nil {
		return nil, ErrDatabaseRequired
	}
	db, ok := m.databases.Service(m.config.Connection)
	if !ok {
		return nil, fmt.Errorf("%w: no connection %q", ErrDatabaseRequired, m.config.Connection)
	}
	return NewSQLStore(ctx, db)
}

// Start seeds the admin account and default sections.
func (m *Module) Start(ctx context.Context) error {
	var sections []SectionInsert
	if m.config.SeedSections {
		var err error
		if sections, err = DefaultSections(); err != nil {
			return err
		}
	}

	seeder := &Seeder{Store: m.store, Admin: m.config.Admin, Sections: sections, Logger: m.logger}
	created, err := seeder.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seeding content: %w", err)
	}
	if created > 0 {
		m.service.emitEvent(ctx, EventTypeSeeded, map[string]any{"sections": created})
	}
	return nil
}

// Service returns the content service; nil before Init.
func (m *Module) Service() *Service {
	return m.service
}
