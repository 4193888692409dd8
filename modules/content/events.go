package content

// Event types emitted after successful writes.
const (
	EventTypeSectionCreated = "com.folio.content.section.created"
	EventTypeSectionUpdated = "com.folio.content.section.updated"
	EventTypeSectionDeleted = "com.folio.content.section.deleted"
	EventTypeProjectCreated = "com.folio.content.project.created"
	EventTypeProjectUpdated = "com.folio.content.project.updated"
	EventTypeProjectDeleted = "com.folio.content.project.deleted"
	EventTypeSeeded         = "com.folio.content.seeded"
)
