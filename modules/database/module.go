// Package database manages named database/sql connections and their
// schema migrations.
package database

import (
	"context"
	"fmt"
	"slices"

	"github.com/GoCodeAlone/folio"
)

const Name = "database"

// ServiceName is the registry name of the default connection.
const ServiceName = "database.service"

type Module struct {
	config   *Config
	services map[string]*Service
	logger   folio.Logger
	subject  folio.Subject
}

func NewModule() *Module {
	return &Module{services: make(map[string]*Service)}
}

func (m *Module) Name() string {
	return Name
}

func (m *Module) RegisterConfig(app folio.Application) error {
	app.RegisterConfigSection(m.Name(), folio.NewStdConfigProvider(&Config{
		Connections: make(map[string]ConnectionConfig),
	}))
	return nil
}

func (m *Module) RegisterObservers(subject folio.Subject) error {
	m.subject = subject
	return nil
}

// Init opens every configured connection so dependent modules can migrate
// during their own Init.
func (m *Module) Init(app folio.Application) error {
	provider, err := app.GetConfigSection(m.Name())
	if err != nil {
		return fmt.Errorf("failed to get config section: %w", err)
	}
	cfg, ok := provider.GetConfig().(*Config)
	if !ok {
		return ErrInvalidConfigType
	}
	m.config = cfg
	m.logger = app.Logger()

	names := make([]string, 0, len(cfg.Connections))
	for name := range cfg.Connections {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		svc := newService(name, cfg.Connections[name], m.logger)
		svc.emit = m.emitEvent
		if err := svc.Connect(context.Background()); err != nil {
			return fmt.Errorf("failed to connect to database '%s': %w", name, err)
		}
		m.services[name] = svc
	}
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	for name, svc := range m.services {
		if err := svc.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping database connection '%s': %w", name, err)
		}
	}
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	var lastErr error
	for name, svc := range m.services {
		if err := svc.Close(); err != nil {
			m.logger.Error("Failed to close database", "connection", name, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: "database.manager", Description: "Database connection manager", Instance: m},
		{Name: ServiceName, Description: "Default database connection", Instance: m.DefaultService()},
	}
}

func (m *Module) RequiresServices() []folio.ServiceDependency {
	return nil
}

// Service returns a named connection.
func (m *Module) Service(name string) (*Service, bool) {
	svc, ok := m.services[name]
	return svc, ok
}

// DefaultService returns the configured default connection, or nil when no
// connections are configured.
func (m *Module) DefaultService() *Service {
	if m.config == nil {
		return nil
	}
	if svc, ok := m.services[m.config.Default]; ok {
		return svc
	}
	return nil
}

func (m *Module) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if m.subject == nil {
		return
	}
	event := folio.NewCloudEvent(eventType, "database-module", data, nil)
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		m.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}

var _ folio.ObservableModule = (*Module)(nil)
