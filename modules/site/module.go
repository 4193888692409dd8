// Package site renders the portfolio page and the admin pages as
// server-side HTML.
//
// Pages:
//
//	GET  /                           the portfolio
//	GET  /auth, POST /auth           login form
//	GET  /admin                      content editor, signed in only
//	POST /admin/sections[/{id}]      create or update a section
//	POST /admin/projects[/{id}]      create or update a project
//	POST /admin/{kind}/{id}/delete
//	POST /admin/logout
//
// Writes go through the content service, so the pages apply the same
// validation as the JSON API.
package site

import (
	"context"
	"os"
	"reflect"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/chimux"
	"github.com/GoCodeAlone/folio/modules/content"
)

const ModuleName = "site"

// basePather is implemented by routers mounted under a path prefix.
type basePather interface {
	BasePath() string
}

type Module struct {
	config   *Config
	router   chi.Router
	mount    basePather
	content  *content.Service
	auth     *auth.Service
	renderer *Renderer
	watcher  *templateWatcher
	logger   folio.Logger
	subject  folio.Subject
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
		{Name: content.ServiceName, Required: true},
		{Name: auth.ServiceName, Required: true},
		{Name: chimux.ServiceName, Required: false},
	}
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return nil
}

func (m *Module) Constructor() folio.ModuleConstructor {
	return func(_ folio.Application, services map[string]any) (folio.Module, error) {
		router, ok := services["chi.router"].(chi.Router)
		if !ok {
			return nil, ErrRouterNotChi
		}
		contentSvc, ok := services[content.ServiceName].(*content.Service)
		if !ok {
			return nil, ErrContentNotService
		}
		authSvc, ok := services[auth.ServiceName].(*auth.Service)
		if !ok {
			return nil, ErrAuthNotService
		}
		if mount, ok := services[chimux.ServiceName].(basePather); ok {
			m.mount = mount
		}
		m.router = router
		m.content = contentSvc
		m.auth = authSvc
		return m, nil
	}
}

func (m *Module) Init(app folio.Application) error {
	m.logger = app.Logger()

	fsys := embeddedFS()
	if m.config.TemplatesDir != "" {
		fsys = os.DirFS(m.config.TemplatesDir)
	}
	renderer, err := NewRenderer(fsys)
	if err != nil {
		return err
	}
	m.renderer = renderer

	basePath := ""
	if m.mount != nil {
		basePath = m.mount.BasePath()
	}
	NewHandler(m.config, m.content, m.auth, m.renderer, m.logger).
		WithBasePath(basePath).
		RegisterRoutes(m.router)
	m.logger.Info("Site module initialized", "devTemplates", m.config.TemplatesDir != "", "basePath", basePath)
	return nil
}

// Start watches the templates directory in development mode.
func (m *Module) Start(context.Context) error {
	if m.config.TemplatesDir == "" {
		return nil
	}
	w, err := watchTemplates(m.config.TemplatesDir, m.renderer.Reload, m.reloaded, m.logger)
	if err != nil {
		return err
	}
	m.watcher = w
	return nil
}

func (m *Module) Stop(context.Context) error {
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	m.watcher = nil
	return err
}

func (m *Module) reloaded(err error) {
	if m.subject == nil {
		return
	}
	eventType, data := EventTypeTemplatesReloaded, map[string]any{"dir": m.config.TemplatesDir}
	if err != nil {
		eventType = EventTypeTemplatesFailed
		data["error"] = err.Error()
	}
	event := folio.NewCloudEvent(eventType, "site-module", data, nil)
	if err := m.subject.NotifyObservers(context.Background(), event); err != nil {
		m.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}
