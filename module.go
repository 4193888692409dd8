// Package folio is the application kernel behind the folio portfolio site.
//
// An application is composed of modules. Each module implements Module and
// may implement any of the optional capability interfaces below; the
// application resolves their ordering from declared and service-derived
// dependencies, feeds their configuration and drives their lifecycle.
//
//	app := folio.NewObservableApplication(nil, logger)
//	app.RegisterModule(httpserver.NewModule())
//	if err := app.Run(); err != nil {
//		log.Fatal(err)
//	}
package folio

import (
	"context"
	"reflect"
)

// Module is a registrable component of the application.
type Module interface {
	// Name returns the unique module name. It is used for dependency
	// resolution and as the default configuration section key.
	Name() string

	// Init is called once, in dependency order, after configuration has
	// been loaded and required services have been injected.
	Init(app Application) error
}

// Configurable modules register their configuration section before Init.
type Configurable interface {
	RegisterConfig(app Application) error
}

// DependencyAware modules name the modules that must initialize first.
type DependencyAware interface {
	Dependencies() []string
}

// ServiceAware modules publish services to the registry and declare the
// services they consume.
type ServiceAware interface {
	ProvidesServices() []ServiceProvider
	RequiresServices() []ServiceDependency
}

// Startable modules are started in dependency order after every module has
// been initialized.
type Startable interface {
	Start(ctx context.Context) error
}

// Stoppable modules are stopped in reverse dependency order.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// ModuleConstructor builds a module from the services it required.
type ModuleConstructor func(app Application, services map[string]any) (Module, error)

// Constructable modules are rebuilt through their constructor once their
// required services are resolved. The returned module replaces the
// registered one.
type Constructable interface {
	Constructor() ModuleConstructor
}

// ServiceProvider describes a service published by a module.
type ServiceProvider struct {
	Name        string
	Description string
	Instance    any
}

// ServiceDependency describes a service a module consumes. With
// MatchByInterface set the first registered service implementing
// SatisfiesInterface is injected under Name.
type ServiceDependency struct {
	Name               string
	Required           bool
	MatchByInterface   bool
	SatisfiesInterface reflect.Type
}

// ServiceRegistry maps service names to instances.
type ServiceRegistry map[string]any

// ModuleRegistry maps module names to modules.
type ModuleRegistry map[string]Module
