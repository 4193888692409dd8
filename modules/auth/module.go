// Package auth provides username/password login backed by server-side
// sessions carried in a cookie.
//
// The module requires a UserStore under "content.storage" and a chi router
// under "chi.router". It publishes the Service as "auth" and itself as a
// chimux.MiddlewareProvider, so every request passes through LoadSession
// and handlers can call UserFromContext or wrap themselves in RequireUser.
package auth

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/chimux"
)

const (
	ModuleName  = "auth"
	ServiceName = "auth"
)

// JobScheduler runs periodic jobs. The session sweep is scheduled on it
// when a "scheduler" service is present.
type JobScheduler interface {
	Schedule(name, spec string, job func(ctx context.Context) error) error
}

type Module struct {
	config    *Config
	service   *Service
	users     UserStore
	router    chi.Router
	scheduler JobScheduler
	redis     *RedisSessionStore
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
			Name:               "content.storage",
			Required:           true,
			SatisfiesInterface: reflect.TypeOf((*UserStore)(nil)).Elem(),
		},
		{
			Name:               "chi.router",
			Required:           true,
			SatisfiesInterface: reflect.TypeOf((*chi.Router)(nil)).Elem(),
		},
		{
			Name:               "scheduler",
			Required:           false,
			SatisfiesInterface: reflect.TypeOf((*JobScheduler)(nil)).Elem(),
		},
	}
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: ServiceName, Description: "Session login service", Instance: m.service},
		{Name: "auth.middleware", Description: "Session loading middleware", Instance: m},
	}
}

func (m *Module) Constructor() folio.ModuleConstructor {
	return func(_ folio.Application, services map[string]any) (folio.Module, error) {
		users, ok := services["content.storage"].(UserStore)
		if !ok {
			return nil, ErrUserStoreNotInterface
		}
		router, ok := services["chi.router"].(chi.Router)
		if !ok {
			return nil, ErrRouterNotChi
		}
		m.users = users
		m.router = router
		if sched, ok := services["scheduler"].(JobScheduler); ok {
			m.scheduler = sched
		}
		return m, nil
	}
}

func (m *Module) Init(app folio.Application) error {
	m.logger = app.Logger()

	sessions, err := m.newSessionStore()
	if err != nil {
		return err
	}

	m.service, err = NewService(m.config, m.users, sessions, m.logger)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	m.service.SetSubject(m.subject)
	m.service.RegisterRoutes(m.router)

	if m.scheduler != nil {
		if err := m.scheduler.Schedule("auth.session-cleanup", m.config.Session.CleanupSchedule, m.service.CleanupSessions); err != nil {
			return fmt.Errorf("scheduling session cleanup: %w", err)
		}
	}

	m.logger.Info("Authentication module initialized", "sessionStore", m.config.Session.Store, "passwordAlgorithm", m.config.Password.Algorithm)
	return nil
}

func (m *Module) newSessionStore() (SessionStore, error) {
	switch m.config.Session.Store {
	case "redis":
		store, err := NewRedisSessionStore(m.config.Session.RedisURL, m.config.Session.KeyPrefix)
		if err != nil {
			return nil, err
		}
		m.redis = store
		return store, nil
	case "", "memory":
		return NewMemorySessionStore(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, m.config.Session.Store)
}

func (m *Module) Start(ctx context.Context) error {
	if m.redis != nil {
		if err := m.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis session store: %w", err)
		}
	}
	return nil
}

func (m *Module) Stop(context.Context) error {
	if m.redis != nil {
		return m.redis.Close()
	}
	return nil
}

// ProvideMiddleware implements chimux.MiddlewareProvider.
func (m *Module) ProvideMiddleware() []chimux.Middleware {
	return []chimux.Middleware{m.service.LoadSession}
}

// Service returns the login service; nil before Init.
func (m *Module) Service() *Service {
	return m.service
}
