package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GoCodeAlone/folio/modules/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names registered by NewValidator.
const (
	SchemaSectionInsert = "section-insert"
	SchemaSectionPatch  = "section-patch"
	SchemaProjectInsert = "project-insert"
	SchemaProjectPatch  = "project-patch"
	SchemaHeroContent   = "hero-content"
)

// ErrValidation wraps every request body rejection.
var ErrValidation = errors.New("validation failed")

// Validator checks request bodies and section content against the
// embedded JSON schemas.
type Validator struct {
	schemas jsonschema.JSONSchemaService
}

func NewValidator(schemas jsonschema.JSONSchemaService) (*Validator, error) {
	if err := schemas.AddSchemasFS(schemaFS, "schemas"); err != nil {
		return nil, fmt.Errorf("loading content schemas: %w", err)
	}
	return &Validator{schemas: schemas}, nil
}

// Body validates a raw request body against schema.
func (v *Validator) Body(schema string, body []byte) error {
	if err := v.schemas.ValidateBytes(schema, body); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// SectionContent validates content for sections with a known shape. Only
// the hero section has one.
func (v *Validator) SectionContent(name string, content json.RawMessage) error {
	if name != "hero" {
		return nil
	}
	if err := v.schemas.ValidateBytes(SchemaHeroContent, content); err != nil {
		return fmt.Errorf("%w: hero content: %w", ErrValidation, err)
	}
	return nil
}

// FieldErrors extracts per-field failures from a validation error.
func FieldErrors(err error) []jsonschema.FieldError {
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
