package auth

const (
	EventTypeLoginSucceeded = "com.folio.auth.login.succeeded"
	EventTypeLoginFailed    = "com.folio.auth.login.failed"
	EventTypeUserRegistered = "com.folio.auth.user.registered"

	EventTypeSessionCreated   = "com.folio.auth.session.created"
	EventTypeSessionExpired   = "com.folio.auth.session.expired"
	EventTypeSessionDestroyed = "com.folio.auth.session.destroyed"
	EventTypeSessionsSwept    = "com.folio.auth.session.swept"
)
