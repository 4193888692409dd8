// Package jsonschema compiles JSON Schema documents and validates request
// bodies against them. The module publishes a shared JSONSchemaService as
// "jsonschema.service".
package jsonschema

import (
	"context"

	"github.com/GoCodeAlone/folio"
)

const (
	Name        = "jsonschema"
	ServiceName = "jsonschema.service"
)

type Module struct {
	schemaService JSONSchemaService
	subject       folio.Subject
	logger        folio.Logger
}

func NewModule() *Module {
	return &Module{schemaService: NewJSONSchemaService()}
}

func (m *Module) Name() string {
	return Name
}

func (m *Module) RegisterObservers(subject folio.Subject) error {
	m.subject = subject
	return nil
}

func (m *Module) Init(app folio.Application) error {
	m.logger = app.Logger()
	return nil
}

// Start reports the schemas registered by dependent modules during Init.
func (m *Module) Start(ctx context.Context) error {
	names := m.schemaService.Schemas()
	m.logger.Debug("JSON schemas compiled", "schemas", names)
	if m.subject != nil {
		event := folio.NewCloudEvent(EventTypeSchemaCompiled, "jsonschema-service", map[string]any{"schemas": names}, nil)
		if err := m.subject.NotifyObservers(ctx, event); err != nil {
			m.logger.Debug("Failed to emit jsonschema event", "error", err)
		}
	}
	return nil
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: ServiceName, Description: "JSON schema validation", Instance: m.schemaService},
	}
}

func (m *Module) RequiresServices() []folio.ServiceDependency {
	return nil
}
