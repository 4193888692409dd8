// Package logmasker redacts sensitive values from structured log arguments.
//
// A MaskingLogger wraps any folio.Logger. Arguments whose key is a listed
// field (password, token, session...) are replaced, email and ip values are
// partially masked, and any string matching a pattern (by default a 64
// character hex session id) is redacted wherever it appears. Map values are
// masked key by key, which covers event payloads logged by eventlogger.
//
// The application logger is normally wrapped before any module runs:
//
//	masker, _ := logmasker.NewMaskingLogger(slogLogger, nil)
//	app := folio.NewObservableApplication(nil, masker)
//	app.RegisterModule(logmasker.NewModule(masker))
//
// The module then applies the "logmasker" config section to that logger.
package logmasker

import (
	"github.com/GoCodeAlone/folio"
)

const (
	ModuleName  = "logmasker"
	ServiceName = "logmasker.logger"
)

type Module struct {
	config *Config
	logger *MaskingLogger
}

// NewModule manages logger; with nil the module wraps the application
// logger during Init and only publishes the result as a service.
func NewModule(logger *MaskingLogger) *Module {
	return &Module{logger: logger}
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) RegisterConfig(app folio.Application) error {
	m.config = &Config{}
	app.RegisterConfigSection(m.Name(), folio.NewStdConfigProvider(m.config))
	return nil
}

func (m *Module) Init(app folio.Application) error {
	if m.logger == nil {
		logger, err := NewMaskingLogger(app.Logger(), m.config)
		if err != nil {
			return err
		}
		m.logger = logger
	} else if err := m.logger.Apply(m.config); err != nil {
		return err
	}
	app.Logger().Debug("Log masking configured", "enabled", m.config.Enabled, "strategy", m.config.Strategy, "fields", len(m.config.Fields))
	return nil
}

func (m *Module) ProvidesServices() []folio.ServiceProvider {
	return []folio.ServiceProvider{
		{Name: ServiceName, Description: "Logger that masks sensitive arguments", Instance: m.logger},
	}
}

func (m *Module) RequiresServices() []folio.ServiceDependency {
	return nil
}

// Logger returns the masking logger; nil before Init when none was given.
func (m *Module) Logger() *MaskingLogger {
	return m.logger
}
