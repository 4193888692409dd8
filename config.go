package folio

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/GoCodeAlone/folio/feeders"
)

const (
	tagDefault  = "default"
	tagRequired = "required"
)

// ConfigProvider exposes a configuration object.
type ConfigProvider interface {
	GetConfig() any
}

// StdConfigProvider holds a configuration pointer.
type StdConfigProvider struct {
	cfg any
}

func (s *StdConfigProvider) GetConfig() any {
	return s.cfg
}

// NewStdConfigProvider wraps cfg, which should be a pointer to a struct so
// feeders can populate it in place.
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

// Feeder populates a whole configuration structure.
type Feeder interface {
	Feed(structure any) error
}

// KeyFeeder populates the part of a configuration source stored under key.
// Section configs are fed through FeedKey when the feeder supports it.
type KeyFeeder interface {
	Feeder
	FeedKey(key string, target any) error
}

// ConfigValidator is implemented by configs that check themselves or fill
// derived defaults after feeding.
type ConfigValidator interface {
	Validate() error
}

// LoadConfig feeds and validates the registered sections without
// initializing any module.
func (app *StdApplication) LoadConfig() error {
	return app.loadConfig()
}

// loadConfig applies default tags, every feeder in order, required tags and
// finally Validate to the main config and each registered section.
func (app *StdApplication) loadConfig() error {
	if app.cfgProvider != nil && app.cfgProvider.GetConfig() != nil {
		if err := app.feedSection("", app.cfgProvider.GetConfig()); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(app.cfgSections))
	for name := range app.cfgSections {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cp := app.cfgSections[name]
		if cp == nil || cp.GetConfig() == nil {
			app.logger.Warn("Skipping section with nil config", "section", name)
			continue
		}
		if err := app.feedSection(name, cp.GetConfig()); err != nil {
			return err
		}
		app.logger.Debug("Loaded config section", "section", name)
	}
	return nil
}

func (app *StdApplication) feedSection(name string, cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: section %q has type %T", ErrConfigNotPointer, name, cfg)
	}

	if err := applyDefaults(v.Elem()); err != nil {
		return fmt.Errorf("%w: defaults for %q: %w", ErrConfigValidation, name, err)
	}

	for _, f := range app.feeders {
		var err error
		if kf, ok := f.(KeyFeeder); ok && name != "" {
			err = kf.FeedKey(name, cfg)
		} else {
			err = f.Feed(cfg)
		}
		if err != nil {
			return fmt.Errorf("%w: section %q: %w", ErrConfigFeederError, name, err)
		}
	}

	var missing []string
	collectMissing(v.Elem(), "", &missing)
	if len(missing) > 0 {
		return fmt.Errorf("%w: section %q missing required %s", ErrConfigValidation, name, strings.Join(missing, ", "))
	}

	if validator, ok := cfg.(ConfigValidator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("%w: section %q: %w", ErrConfigValidation, name, err)
		}
	}
	return nil
}

// ApplyDefaults fills the zero fields of cfg, a pointer to a struct, from
// their default tags.
func ApplyDefaults(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrConfigNotPointer, cfg)
	}
	return applyDefaults(v.Elem())
}

func applyDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}
		def, ok := t.Field(i).Tag.Lookup(tagDefault)
		if !ok || !field.IsZero() {
			continue
		}
		if err := feeders.SetFieldFromString(field, def); err != nil {
			return fmt.Errorf("%s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func collectMissing(v reflect.Value, prefix string, missing *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		name := t.Field(i).Name
		if prefix != "" {
			name = prefix + "." + name
		}
		if field.Kind() == reflect.Struct {
			collectMissing(field, name, missing)
			continue
		}
		if t.Field(i).Tag.Get(tagRequired) == "true" && field.IsZero() {
			*missing = append(*missing, name)
		}
	}
}
