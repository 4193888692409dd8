package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/feeders"
	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/chimux"
	"github.com/GoCodeAlone/folio/modules/content"
	"github.com/GoCodeAlone/folio/modules/database"
	"github.com/GoCodeAlone/folio/modules/eventlogger"
	"github.com/GoCodeAlone/folio/modules/httpserver"
	"github.com/GoCodeAlone/folio/modules/jsonschema"
	"github.com/GoCodeAlone/folio/modules/logmasker"
	"github.com/GoCodeAlone/folio/modules/scheduler"
	"github.com/GoCodeAlone/folio/modules/site"
)

var (
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
	ErrInvalidLogLevel         = errors.New("invalid log level")
	ErrInvalidLogFormat        = errors.New("invalid log format")
)

// AppOptions are the settings that exist before configuration is loaded.
type AppOptions struct {
	ConfigFile string
	EnvPrefix  string
	LogLevel   string
	LogFormat  string
	LogOutput  io.Writer
}

// Modules returns every module the server runs, sharing masker as the
// logmasker module's logger.
func Modules(masker *logmasker.MaskingLogger) []folio.Module {
	return []folio.Module{
		logmasker.NewModule(masker),
		eventlogger.NewModule(),
		chimux.NewChiMuxModule(),
		httpserver.NewHTTPServerModule(),
		database.NewModule(),
		jsonschema.NewModule(),
		scheduler.NewModule(),
		content.NewModule(),
		auth.NewModule(),
		site.NewModule(),
	}
}

// BuildApplication assembles the observable application with a masked
// slog logger and the config feeders for opts. Nothing is initialized.
func BuildApplication(opts AppOptions) (*folio.ObservableApplication, error) {
	base, err := NewLogger(opts.LogOutput, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}
	masker, err := logmasker.NewMaskingLogger(base, nil)
	if err != nil {
		return nil, err
	}

	configFeeders, err := ConfigFeeders(opts.ConfigFile, opts.EnvPrefix)
	if err != nil {
		return nil, err
	}

	app := folio.NewObservableApplication(nil, masker)
	app.SetConfigFeeders(configFeeders...)
	for _, module := range Modules(masker) {
		app.RegisterModule(module)
	}
	return app, nil
}

// ConfigFeeders picks a file feeder by extension, followed by an env feeder
// so environment variables win.
func ConfigFeeders(path, envPrefix string) ([]folio.Feeder, error) {
	var result []folio.Feeder
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			result = append(result, feeders.NewYamlFeeder(path))
		case ".toml":
			result = append(result, feeders.NewTomlFeeder(path))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
		}
	}
	if envPrefix != "" {
		result = append(result, feeders.NewEnvFeeder(envPrefix))
	}
	return result, nil
}

func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidLogFormat, format)
}
