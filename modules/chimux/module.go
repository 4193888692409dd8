// Package chimux provides the chi based HTTP router module.
//
// The module publishes the router under three names:
//   - "chimux.router": the *ChiMuxModule itself
//   - "router": the same instance as a BasicRouter / http.Handler
//   - "chi.router": the underlying chi.Router for Route/Group/With
//
// Every request passes through RequestID, RealIP, Recoverer, an optional
// timeout, CORS and request monitoring. On Start the module looks up every
// registered service implementing MiddlewareProvider and wraps the router
// with the middleware it returns, so providers need not be initialized
// before the routes they guard.
package chimux

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/folio"
)

const (
	ModuleName  = "chimux"
	ServiceName = "chimux.router"
)

var (
	ErrInvalidConfig   = errors.New("invalid chimux configuration")
	ErrConfigNotLoaded = errors.New("chimux config section has unexpected type")
)

// ChiMuxModule is the router module.
type ChiMuxModule struct {
	name    string
	config  *ChiMuxConfig
	router  *chi.Mux
	app     folio.Application
	logger  folio.Logger
	subject folio.Subject

	mu       sync.RWMutex
	extra    []Middleware
	handler  http.Handler
	provided []string
}

func NewChiMuxModule() *ChiMuxModule {
	return &ChiMuxModule{name: ModuleName}
}

func (m *ChiMuxModule) Name() string {
	return m.name
}

func (m *ChiMuxModule) RegisterConfig(app folio.Application) error {
	app.RegisterConfigSection(m.Name(), folio.NewStdConfigProvider(&ChiMuxConfig{}))
	return nil
}

func (m *ChiMuxModule) RegisterObservers(subject folio.Subject) error {
	m.subject = subject
	return nil
}

// Init creates the router. Routes may be registered from this point on.
func (m *ChiMuxModule) Init(app folio.Application) error {
	m.app = app
	m.logger = app.Logger()

	cp, err := app.GetConfigSection(m.name)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", m.name, err)
	}
	cfg, ok := cp.GetConfig().(*ChiMuxConfig)
	if !ok {
		return fmt.Errorf("%w: %T", ErrConfigNotLoaded, cp.GetConfig())
	}
	m.config = cfg

	m.router = chi.NewRouter()
	m.handler = m.compose(nil)

	ctx := context.Background()
	m.emitEvent(ctx, EventTypeConfigLoaded, map[string]any{
		"allowed_origins":   m.config.AllowedOrigins,
		"allow_credentials": m.config.AllowCredentials,
		"timeout":           m.config.Timeout.String(),
		"base_path":         m.config.BasePath,
	})
	m.emitEvent(ctx, EventTypeCorsConfigured, map[string]any{
		"allowed_origins": m.config.AllowedOrigins,
		"allowed_methods": m.config.AllowedMethods,
		"allowed_headers": m.config.AllowedHeaders,
	})
	m.emitEvent(ctx, EventTypeRouterCreated, map[string]any{"base_path": m.config.BasePath})

	m.logger.Info("Chimux module initialized", "basePath", m.config.BasePath)
	return nil
}

// Start wraps the router with middleware from every MiddlewareProvider in
// the service registry.
func (m *ChiMuxModule) Start(ctx context.Context) error {
	var provided []Middleware
	var names []string
	registry := m.app.SvcRegistry()
	for _, name := range sortedKeys(registry) {
		provider, ok := registry[name].(MiddlewareProvider)
		if !ok {
			continue
		}
		mws := provider.ProvideMiddleware()
		if len(mws) == 0 {
			continue
		}
		provided = append(provided, mws...)
		names = append(names, name)
		m.logger.Debug("Applied middleware provider", "service", name, "count", len(mws))
	}

	m.mu.Lock()
	m.provided = names
	m.handler = m.compose(provided)
	m.mu.Unlock()

	if len(provided) > 0 {
		m.emitEvent(ctx, EventTypeMiddlewareAdded, map[string]any{
			"providers":        names,
			"middleware_count": len(provided),
		})
	}
	m.emitEvent(ctx, EventTypeModuleStarted, map[string]any{"routes_count": len(m.router.Routes())})
	return nil
}

func (m *ChiMuxModule) Stop(ctx context.Context) error {
	m.emitEvent(ctx, EventTypeModuleStopped, map[string]any{"routes_count": len(m.router.Routes())})
	return nil
}

// compose builds the handler chain: standard middleware, then provided
// middleware, then middleware added through Use, then the router.
func (m *ChiMuxModule) compose(provided []Middleware) http.Handler {
	chain := chi.Middlewares{
		middleware.RequestID,
		middleware.RealIP,
		m.requestMonitoringMiddleware(),
		middleware.Recoverer,
	}
	if m.config.Timeout > 0 {
		chain = append(chain, middleware.Timeout(m.config.Timeout))
	}
	chain = append(chain, m.corsMiddleware())
	for _, mw := range provided {
		chain = append(chain, mw)
	}
	for _, mw := range m.extra {
		chain = append(chain, mw)
	}
	return chain.Handler(m.router)
}

func (m *ChiMuxModule) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: ServiceName, Description: "Chi router service for HTTP routing", Instance: m},
		{Name: "router", Description: "Basic router service interface", Instance: m},
		{Name: "chi.router", Description: "Full Chi router with Route/Group support", Instance: m.ChiRouter()},
	}
}

func (m *ChiMuxModule) RequiresServices() []folio.ServiceDependency {
	return nil
}

// ChiRouter returns the underlying chi.Router.
func (m *ChiMuxModule) ChiRouter() chi.Router {
	return m.router
}

// ProvidedMiddleware names the services whose middleware was applied on
// Start.
func (m *ChiMuxModule) ProvidedMiddleware() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.provided)
}

func (m *ChiMuxModule) Get(pattern string, handler http.HandlerFunc) {
	m.router.Get(pattern, handler)
	m.routeRegistered(http.MethodGet, pattern)
}

func (m *ChiMuxModule) Post(pattern string, handler http.HandlerFunc) {
	m.router.Post(pattern, handler)
	m.routeRegistered(http.MethodPost, pattern)
}

func (m *ChiMuxModule) Patch(pattern string, handler http.HandlerFunc) {
	m.router.Patch(pattern, handler)
	m.routeRegistered(http.MethodPatch, pattern)
}

func (m *ChiMuxModule) Delete(pattern string, handler http.HandlerFunc) {
	m.router.Delete(pattern, handler)
	m.routeRegistered(http.MethodDelete, pattern)
}

func (m *ChiMuxModule) Handle(pattern string, handler http.Handler) {
	m.router.Handle(pattern, handler)
}

func (m *ChiMuxModule) Mount(pattern string, handler http.Handler) {
	m.router.Mount(pattern, handler)
}

// Use appends middleware that runs after provided middleware. Unlike
// chi.Mux.Use it may be called after routes are registered; it takes
// effect on the next Start.
func (m *ChiMuxModule) Use(middlewares ...func(http.Handler) http.Handler) {
	m.mu.Lock()
	for _, mw := range middlewares {
		m.extra = append(m.extra, mw)
	}
	m.mu.Unlock()
	m.emitEvent(context.Background(), EventTypeMiddlewareAdded, map[string]any{"middleware_count": len(middlewares)})
}

func (m *ChiMuxModule) routeRegistered(method, pattern string) {
	m.emitEvent(context.Background(), EventTypeRouteRegistered, map[string]any{
		"method":  method,
		"pattern": pattern,
	})
}

// ServeHTTP strips the base path, if any, and dispatches through the
// composed middleware chain.
func (m *ChiMuxModule) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	handler := m.handler
	m.mu.RUnlock()

	if m.config.BasePath == "" {
		handler.ServeHTTP(w, r)
		return
	}
	if r.URL.Path != m.config.BasePath && !strings.HasPrefix(r.URL.Path, m.config.BasePath+"/") {
		http.NotFound(w, r)
		return
	}

	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = strings.TrimPrefix(r.URL.Path, m.config.BasePath)
	if r2.URL.Path == "" {
		r2.URL.Path = "/"
	}
	r2.URL.RawPath = ""
	handler.ServeHTTP(w, r2)
}

// BasePath is the prefix stripped from request paths, or "" when routes
// are served from the root.
func (m *ChiMuxModule) BasePath() string {
	if m.config == nil {
		return ""
	}
	return m.config.BasePath
}

// Routes lists the registered routes.
func (m *ChiMuxModule) Routes() []chi.Route {
	return m.router.Routes()
}

func (m *ChiMuxModule) corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if allowed, ok := m.config.allowOrigin(origin); ok {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				if allowed != "*" {
					h.Add("Vary", "Origin")
				}
				if len(m.config.AllowedMethods) > 0 {
					h.Set("Access-Control-Allow-Methods", strings.Join(m.config.AllowedMethods, ", "))
				}
				if len(m.config.AllowedHeaders) > 0 {
					h.Set("Access-Control-Allow-Headers", strings.Join(m.config.AllowedHeaders, ", "))
				}
				if m.config.AllowCredentials && allowed != "*" {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if m.config.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(m.config.MaxAge))
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestMonitoringMiddleware logs each request and emits request events.
func (m *ChiMuxModule) requestMonitoringMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			m.emitEvent(ctx, EventTypeRequestReceived, map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.UserAgent(),
			})

			wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				duration := time.Since(start)
				data := map[string]any{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status_code": wrapper.statusCode,
					"duration_ms": duration.Milliseconds(),
				}
				if wrapper.statusCode >= 400 {
					m.emitEvent(ctx, EventTypeRequestFailed, data)
				} else {
					m.emitEvent(ctx, EventTypeRequestProcessed, data)
				}
				if m.config.RequestLogging {
					m.logger.Info("Request",
						"method", r.Method,
						"path", r.URL.Path,
						"status", wrapper.statusCode,
						"duration", duration,
						"requestID", middleware.GetReqID(ctx),
					)
				}
			}()

			next.ServeHTTP(wrapper, r)
		})
	}
}

// responseWriterWrapper captures the status code.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (m *ChiMuxModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if m.subject == nil {
		return
	}
	event := folio.NewCloudEvent(eventType, "chimux-service", data, nil)
	if err := m.subject.NotifyObservers(ctx, event); err != nil && m.logger != nil {
		m.logger.Debug("Failed to emit chimux event", "eventType", eventType, "error", err)
	}
}

func sortedKeys(registry folio.ServiceRegistry) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
