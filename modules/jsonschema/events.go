package jsonschema

// Event types emitted by the jsonschema module.
const (
	EventTypeSchemaCompiled = "com.folio.jsonschema.schema.compiled"
	EventTypeSchemaError    = "com.folio.jsonschema.schema.error"
)
