package folio

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"slices"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 30 * time.Second

// Application is the module container.
type Application interface {
	ConfigProvider() ConfigProvider
	SvcRegistry() ServiceRegistry
	RegisterModule(module Module)
	RegisterConfigSection(section string, cp ConfigProvider)
	ConfigSections() map[string]ConfigProvider
	GetConfigSection(section string) (ConfigProvider, error)
	RegisterService(name string, service any) error
	GetService(name string, target any) error
	SetConfigFeeders(feeders ...Feeder)
	Init() error
	Start() error
	Stop() error
	Run() error
	Logger() Logger
}

// StdApplication is the default Application.
type StdApplication struct {
	cfgProvider     ConfigProvider
	cfgSections     map[string]ConfigProvider
	svcRegistry     ServiceRegistry
	moduleRegistry  ModuleRegistry
	feeders         []Feeder
	logger          Logger
	shutdownTimeout time.Duration
	order           []string
	ctx             context.Context
	cancel          context.CancelFunc

	// hooks let ObservableApplication emit lifecycle events without
	// StdApplication knowing about observers.
	onModuleRegistered  func(Module)
	onServiceRegistered func(name string, svc any)
}

// NewStdApplication creates an application. cp may be nil when there is no
// application-wide config.
func NewStdApplication(cp ConfigProvider, logger Logger) *StdApplication {
	return &StdApplication{
		cfgProvider:     cp,
		cfgSections:     make(map[string]ConfigProvider),
		svcRegistry:     make(ServiceRegistry),
		moduleRegistry:  make(ModuleRegistry),
		logger:          logger,
		shutdownTimeout: defaultShutdownTimeout,
	}
}

func (app *StdApplication) ConfigProvider() ConfigProvider {
	return app.cfgProvider
}

func (app *StdApplication) SvcRegistry() ServiceRegistry {
	return app.svcRegistry
}

func (app *StdApplication) Logger() Logger {
	return app.logger
}

// SetLogger replaces the application logger, typically with a decorated one.
func (app *StdApplication) SetLogger(logger Logger) {
	app.logger = logger
}

// SetConfigFeeders sets the feeders applied, in order, when Init loads config.
func (app *StdApplication) SetConfigFeeders(feeders ...Feeder) {
	app.feeders = feeders
}

// SetShutdownTimeout bounds the context passed to Stoppable modules.
func (app *StdApplication) SetShutdownTimeout(d time.Duration) {
	app.shutdownTimeout = d
}

func (app *StdApplication) RegisterModule(module Module) {
	app.moduleRegistry[module.Name()] = module
	if app.onModuleRegistered != nil {
		app.onModuleRegistered(module)
	}
}

func (app *StdApplication) RegisterConfigSection(section string, cp ConfigProvider) {
	app.cfgSections[section] = cp
}

func (app *StdApplication) ConfigSections() map[string]ConfigProvider {
	return app.cfgSections
}

func (app *StdApplication) GetConfigSection(section string) (ConfigProvider, error) {
	cp, exists := app.cfgSections[section]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigSectionNotFound, section)
	}
	return cp, nil
}

func (app *StdApplication) RegisterService(name string, service any) error {
	if _, exists := app.svcRegistry[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, name)
	}
	app.svcRegistry[name] = service
	app.logger.Debug("Registered service", "name", name, "type", reflect.TypeOf(service))
	if app.onServiceRegistered != nil {
		app.onServiceRegistered(name, service)
	}
	return nil
}

// GetService assigns the named service to target, which must be a pointer
// to an interface the service implements or to the service's own type.
func (app *StdApplication) GetService(name string, target any) error {
	service, exists := app.svcRegistry[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	if isNilService(service) {
		return fmt.Errorf("%w: %s", ErrServiceNil, name)
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return ErrTargetNotPointer
	}

	serviceType := reflect.TypeOf(service)
	targetType := targetValue.Elem().Type()

	switch {
	case serviceType.AssignableTo(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service))
	case serviceType.Kind() == reflect.Ptr && serviceType.Elem().AssignableTo(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service).Elem())
	default:
		return fmt.Errorf("%w: service '%s' of type %s cannot be assigned to %s",
			ErrServiceIncompatible, name, serviceType, targetType)
	}
	return nil
}

// Init registers config sections, loads configuration and initializes
// modules in dependency order, injecting services as it goes.
func (app *StdApplication) Init() error {
	for _, name := range app.sortedModuleNames() {
		configurable, ok := app.moduleRegistry[name].(Configurable)
		if !ok {
			continue
		}
		if err := configurable.RegisterConfig(app); err != nil {
			return fmt.Errorf("failed to register config for module %s: %w", name, err)
		}
	}

	if err := app.loadConfig(); err != nil {
		return fmt.Errorf("failed to load app config: %w", err)
	}

	order, err := app.resolveDependencies()
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	app.order = order

	for _, name := range order {
		module := app.moduleRegistry[name]
		if _, ok := module.(ServiceAware); ok {
			if module, err = app.injectServices(module); err != nil {
				return fmt.Errorf("failed to inject services for module '%s': %w", name, err)
			}
		}

		if err = module.Init(app); err != nil {
			return fmt.Errorf("failed to initialize module '%s': %w", name, err)
		}

		if svcAware, ok := module.(ServiceAware); ok {
			for _, svc := range svcAware.ProvidesServices() {
				if err = app.RegisterService(svc.Name, svc.Instance); err != nil {
					return fmt.Errorf("module '%s' failed to register service: %w", name, err)
				}
			}
		}

		app.logger.Info("Initialized module", "module", name, "type", fmt.Sprintf("%T", module))
	}
	return nil
}

// Start starts modules in dependency order.
func (app *StdApplication) Start() error {
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, name := range app.order {
		startable, ok := app.moduleRegistry[name].(Startable)
		if !ok {
			continue
		}
		app.logger.Info("Starting module", "module", name)
		if err := startable.Start(app.ctx); err != nil {
			return fmt.Errorf("failed to start module %s: %w", name, err)
		}
	}
	return nil
}

// Stop stops modules in reverse dependency order. Every module is stopped
// even when an earlier one fails; the last error is returned.
func (app *StdApplication) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()

	order := slices.Clone(app.order)
	slices.Reverse(order)

	var lastErr error
	for _, name := range order {
		stoppable, ok := app.moduleRegistry[name].(Stoppable)
		if !ok {
			continue
		}
		app.logger.Info("Stopping module", "module", name)
		if err := stoppable.Stop(ctx); err != nil {
			app.logger.Error("Error stopping module", "module", name, "error", err)
			lastErr = err
		}
	}

	if app.cancel != nil {
		app.cancel()
	}
	return lastErr
}

// Run initializes and starts the application, then blocks until SIGINT or
// SIGTERM and stops it.
func (app *StdApplication) Run() error {
	if err := app.Init(); err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}

	app.waitForSignal()
	return app.Stop()
}

func (app *StdApplication) waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	app.logger.Info("Received signal, shutting down", "signal", sig)
}

func (app *StdApplication) sortedModuleNames() []string {
	names := make([]string, 0, len(app.moduleRegistry))
	for name := range app.moduleRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (app *StdApplication) injectServices(module Module) (Module, error) {
	required := make(map[string]any)
	for _, dep := range module.(ServiceAware).RequiresServices() {
		svc, found := app.findService(dep)
		if found && isNilService(svc) {
			if dep.Required {
				return nil, fmt.Errorf("%w: %s", ErrServiceNil, dep.Name)
			}
			found = false
		}
		if !found {
			if dep.Required {
				return nil, fmt.Errorf("%w: %s for %s", ErrRequiredServiceNotFound, dep.Name, module.Name())
			}
			continue
		}
		if dep.SatisfiesInterface != nil && !reflect.TypeOf(svc).Implements(dep.SatisfiesInterface) {
			return nil, fmt.Errorf("%w: service '%s' of type %T doesn't satisfy %s",
				ErrServiceWrongInterface, dep.Name, svc, dep.SatisfiesInterface)
		}
		required[dep.Name] = svc
	}

	constructable, ok := module.(Constructable)
	if !ok {
		return module, nil
	}

	built, err := constructable.Constructor()(app, required)
	if err != nil {
		return nil, fmt.Errorf("failed to construct module '%s': %w", module.Name(), err)
	}
	app.moduleRegistry[module.Name()] = built
	return built, nil
}

func isNilService(svc any) bool {
	if svc == nil {
		return true
	}
	v := reflect.ValueOf(svc)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (app *StdApplication) findService(dep ServiceDependency) (any, bool) {
	if !dep.MatchByInterface {
		svc, ok := app.svcRegistry[dep.Name]
		return svc, ok
	}
	if dep.SatisfiesInterface == nil || dep.SatisfiesInterface.Kind() != reflect.Interface {
		return nil, false
	}

	names := make([]string, 0, len(app.svcRegistry))
	for name := range app.svcRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		svc := app.svcRegistry[name]
		if !isNilService(svc) && reflect.TypeOf(svc).Implements(dep.SatisfiesInterface) {
			return svc, true
		}
	}
	return nil, false
}

// resolveDependencies returns module names in initialization order.
func (app *StdApplication) resolveDependencies() ([]string, error) {
	graph := make(map[string][]string, len(app.moduleRegistry))
	for name, module := range app.moduleRegistry {
		if da, ok := module.(DependencyAware); ok {
			graph[name] = slices.Clone(da.Dependencies())
		} else {
			graph[name] = nil
		}
	}
	app.addImplicitDependencies(graph)

	var result []string
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(string) error
	visit = func(node string) error {
		if visiting[node] {
			return fmt.Errorf("%w: %s", ErrCircularDependency, node)
		}
		if visited[node] {
			return nil
		}
		visiting[node] = true

		for _, dep := range graph[node] {
			if _, exists := app.moduleRegistry[dep]; !exists {
				return fmt.Errorf("%w: %s depends on non-existent module %s",
					ErrModuleDependencyMissing, node, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		visiting[node] = false
		visited[node] = true
		result = append(result, node)
		return nil
	}

	for _, name := range app.sortedModuleNames() {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	app.logger.Debug("Module initialization order", "order", result)
	return result, nil
}

// addImplicitDependencies makes every module that requires a service depend
// on the module providing it.
func (app *StdApplication) addImplicitDependencies(graph map[string][]string) {
	type provided struct {
		module   string
		instance any
	}
	providers := make(map[string]provided)
	for name, module := range app.moduleRegistry {
		sa, ok := module.(ServiceAware)
		if !ok {
			continue
		}
		for _, svc := range sa.ProvidesServices() {
			providers[svc.Name] = provided{module: name, instance: svc.Instance}
		}
	}

	for consumer, module := range app.moduleRegistry {
		sa, ok := module.(ServiceAware)
		if !ok {
			continue
		}
		for _, dep := range sa.RequiresServices() {
			var provider, matched string
			if dep.MatchByInterface && dep.SatisfiesInterface != nil {
				for svcName, p := range providers {
					if p.instance == nil || !reflect.TypeOf(p.instance).Implements(dep.SatisfiesInterface) {
						continue
					}
					if matched == "" || svcName < matched {
						matched, provider = svcName, p.module
					}
				}
			} else if p, ok := providers[dep.Name]; ok {
				provider = p.module
			}

			if provider != "" && provider != consumer && !slices.Contains(graph[consumer], provider) {
				graph[consumer] = append(graph[consumer], provider)
				app.logger.Debug("Added implicit dependency", "consumer", consumer, "provider", provider, "service", dep.Name)
			}
		}
	}
}
