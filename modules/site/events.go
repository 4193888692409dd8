package site

const (
	EventTypeTemplatesReloaded = "com.folio.site.templates.reloaded"
	EventTypeTemplatesFailed   = "com.folio.site.templates.failed"
)
