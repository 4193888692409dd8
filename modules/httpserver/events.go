package httpserver

// Event types emitted by the httpserver module.
const (
	EventTypeServerStarted = "com.folio.httpserver.server.started"
	EventTypeServerStopped = "com.folio.httpserver.server.stopped"
	EventTypeTLSConfigured = "com.folio.httpserver.tls.configured"
	EventTypeConfigLoaded  = "com.folio.httpserver.config.loaded"
)
