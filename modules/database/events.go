package database

const (
	EventTypeConnected          = "com.folio.database.connected"
	EventTypeMigrationStarted   = "com.folio.database.migration.started"
	EventTypeMigrationCompleted = "com.folio.database.migration.completed"
	EventTypeMigrationFailed    = "com.folio.database.migration.failed"
)
