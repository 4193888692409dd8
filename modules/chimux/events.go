package chimux

// Event types emitted by the chimux module.
const (
	EventTypeConfigLoaded    = "com.folio.chimux.config.loaded"
	EventTypeRouterCreated   = "com.folio.chimux.router.created"
	EventTypeRouteRegistered = "com.folio.chimux.route.registered"
	EventTypeMiddlewareAdded = "com.folio.chimux.middleware.added"
	EventTypeCorsConfigured  = "com.folio.chimux.cors.configured"
	EventTypeModuleStarted   = "com.folio.chimux.module.started"
	EventTypeModuleStopped   = "com.folio.chimux.module.stopped"

	EventTypeRequestReceived  = "com.folio.chimux.request.received"
	EventTypeRequestProcessed = "com.folio.chimux.request.processed"
	EventTypeRequestFailed    = "com.folio.chimux.request.failed"
)
