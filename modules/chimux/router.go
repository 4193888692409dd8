package chimux

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BasicRouter is the subset of routing other modules usually need.
type BasicRouter interface {
	http.Handler
	Get(pattern string, handler http.HandlerFunc)
	Post(pattern string, handler http.HandlerFunc)
	Patch(pattern string, handler http.HandlerFunc)
	Delete(pattern string, handler http.HandlerFunc)
	Handle(pattern string, handler http.Handler)
	Mount(pattern string, handler http.Handler)
}

// ChiRouterService gives direct access to the underlying chi router.
type ChiRouterService interface {
	ChiRouter() chi.Router
}

// Middleware is a chi middleware handler function.
type Middleware func(http.Handler) http.Handler

// MiddlewareProvider is implemented by services whose middleware wraps every
// request. Providers are discovered from the service registry on Start.
type MiddlewareProvider interface {
	ProvideMiddleware() []Middleware
}
