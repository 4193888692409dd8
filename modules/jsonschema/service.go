package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// schemaBase prefixes schema names to form their resource URLs.
const schemaBase = "https://folio.local/schemas/"

var (
	ErrSchemaNotFound = errors.New("schema not registered")
	ErrInvalidJSON    = errors.New("invalid JSON")
)

// FieldError is one schema violation at a JSON pointer location.
type FieldError struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Location+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", e.Schema, strings.Join(parts, "; "))
}

// JSONSchemaService compiles named schemas and validates documents against
// them. Formats such as "uri" are asserted.
type JSONSchemaService interface {
	AddSchema(name string, schema []byte) error
	// AddSchemasFS registers every *.json file in dir under its base name
	// without the extension.
	AddSchemasFS(fsys fs.FS, dir string) error
	ValidateBytes(name string, data []byte) error
	ValidateInterface(name string, value any) error
	Schemas() []string
}

type schemaServiceImpl struct {
	mu       sync.RWMutex
	compiler *jsonschema.Compiler
	schemas  map[string]*jsonschema.Schema
	printer  *message.Printer
}

func NewJSONSchemaService() JSONSchemaService {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return &schemaServiceImpl{
		compiler: c,
		schemas:  make(map[string]*jsonschema.Schema),
		printer:  message.NewPrinter(language.English),
	}
}

func (s *schemaServiceImpl) AddSchema(name string, schema []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return fmt.Errorf("schema %s: %w: %w", name, ErrInvalidJSON, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	url := schemaBase + name + ".json"
	if err := s.compiler.AddResource(url, doc); err != nil {
		return fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	compiled, err := s.compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	s.schemas[name] = compiled
	return nil
}

func (s *schemaServiceImpl) AddSchemasFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading schema dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading schema %s: %w", entry.Name(), err)
		}
		if err := s.AddSchema(strings.TrimSuffix(entry.Name(), ".json"), data); err != nil {
			return err
		}
	}
	return nil
}

func (s *schemaServiceImpl) ValidateBytes(name string, data []byte) error {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return s.ValidateInterface(name, value)
}

// ValidateInterface validates a decoded JSON value. Numbers must be
// json.Number or float64 as produced by the JSON decoders.
func (s *schemaServiceImpl) ValidateInterface(name string, value any) error {
	s.mu.RLock()
	schema, ok := s.schemas[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}

	err := schema.Validate(value)
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Schema: name, Fields: s.fieldErrors(verr)}
	}
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func (s *schemaServiceImpl) Schemas() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// fieldErrors flattens the error tree to its leaves.
func (s *schemaServiceImpl) fieldErrors(verr *jsonschema.ValidationError) []FieldError {
	if len(verr.Causes) == 0 {
		return []FieldError{{
			Location: "/" + strings.Join(verr.InstanceLocation, "/"),
			Message:  verr.ErrorKind.LocalizedString(s.printer),
		}}
	}
	var out []FieldError
	for _, cause := range verr.Causes {
		out = append(out, s.fieldErrors(cause)...)
	}
	return out
}
