// Package httpserver serves the application router over HTTP or HTTPS with
// graceful shutdown.
package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sync"

	"github.com/GoCodeAlone/folio"
)

const ModuleName = "httpserver"

var (
	ErrInvalidConfig           = errors.New("invalid httpserver configuration")
	ErrServerNotStarted        = errors.New("server not started")
	ErrNoHandler               = errors.New("no HTTP handler available")
	ErrRouterServiceNotHandler = errors.New("router service does not implement http.Handler")
)

// HTTPServerModule owns the http.Server.
type HTTPServerModule struct {
	config  *HTTPServerConfig
	handler http.Handler
	logger  folio.Logger
	subject folio.Subject

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

var _ folio.Module = (*HTTPServerModule)(nil)

func NewHTTPServerModule() *HTTPServerModule {
	return &HTTPServerModule{}
}

func (m *HTTPServerModule) Name() string {
	return ModuleName
}

func (m *HTTPServerModule) RegisterConfig(app folio.Application) error {
	if _, err := app.GetConfigSection(m.Name()); err == nil {
		return nil
	}
	app.RegisterConfigSection(m.Name(), folio.NewStdConfigProvider(&HTTPServerConfig{}))
	return nil
}

func (m *HTTPServerModule) RegisterObservers(subject folio.Subject) error {
	m.subject = subject
	return nil
}

func (m *HTTPServerModule) Init(app folio.Application) error {
	m.logger = app.Logger()

	cp, err := app.GetConfigSection(m.Name())
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", m.Name(), err)
	}
	cfg, ok := cp.GetConfig().(*HTTPServerConfig)
	if !ok {
		return fmt.Errorf("%w: unexpected config type %T", ErrInvalidConfig, cp.GetConfig())
	}
	m.config = cfg

	m.emitEvent(context.Background(), EventTypeConfigLoaded, map[string]any{
		"address":       m.config.Address(),
		"tls_enabled":   m.config.TLS.Enabled,
		"read_timeout":  m.config.ReadTimeout.String(),
		"write_timeout": m.config.WriteTimeout.String(),
	})
	return nil
}

func (m *HTTPServerModule) Constructor() folio.ModuleConstructor {
	return func(_ folio.Application, services map[string]any) (folio.Module, error) {
		handler, ok := services["router"].(http.Handler)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRouterServiceNotHandler, "router")
		}
		m.handler = handler
		return m, nil
	}
}

func (m *HTTPServerModule) RequiresServices() []folio.ServiceDependency {
	return []folio.ServiceDependency{
		{
			Name:               "router",
			Required:           true,
			SatisfiesInterface: reflect.TypeOf((*http.Handler)(nil)).Elem(),
		},
	}
}

func (m *HTTPServerModule) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: ModuleName, Description: "HTTP server", Instance: m},
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly.
func (m *HTTPServerModule) Start(ctx context.Context) error {
	if m.handler == nil {
		return ErrNoHandler
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", m.config.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", m.config.Address(), err)
	}

	server := &http.Server{
		Handler:      m.handler,
		ReadTimeout:  m.config.ReadTimeout,
		WriteTimeout: m.config.WriteTimeout,
		IdleTimeout:  m.config.IdleTimeout,
	}

	if m.config.TLS.Enabled {
		tlsConfig, err := m.config.TLS.tlsConfig()
		if err != nil {
			_ = listener.Close()
			return fmt.Errorf("configuring TLS: %w", err)
		}
		server.TLSConfig = tlsConfig
		listener = tls.NewListener(listener, tlsConfig)
		m.emitEvent(ctx, EventTypeTLSConfigured, map[string]any{"auto_generated": m.config.TLS.AutoGenerate})
	}

	m.server = server
	m.listener = listener
	m.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", "error", err)
		}
	}(m.done)

	m.logger.Info("HTTP server started", "address", listener.Addr().String(), "tls", m.config.TLS.Enabled)
	m.emitEvent(ctx, EventTypeServerStarted, map[string]any{"address": listener.Addr().String()})
	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (m *HTTPServerModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return ErrServerNotStarted
	}

	m.logger.Info("Stopping HTTP server", "timeout", m.config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()

	if err := m.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	<-m.done
	m.server = nil
	m.listener = nil

	m.emitEvent(ctx, EventTypeServerStopped, nil)
	m.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address, or "" when the server is not running.
func (m *HTTPServerModule) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *HTTPServerModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if m.subject == nil {
		return
	}
	event := folio.NewCloudEvent(eventType, "httpserver-service", data, nil)
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		m.logger.Debug("Failed to emit httpserver event", "eventType", eventType, "error", err)
	}
}
